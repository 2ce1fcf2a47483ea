package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelf/internal/server"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for searching and filing books.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config

	// Logs go to a file while the TUI owns the terminal.
	path, err := shared.ExpandHome(cfg.Log.File)
	if err != nil {
		return err
	}
	fileLogger, closer, err := shared.NewFileLogger(path)
	if err != nil {
		return err
	}
	defer closer.Close()
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)
	r.rewire()

	collections, err := r.store(ctx)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Catalog:      r.catalog,
		Auth:         r.auth,
		Collections:  collections,
		Engine:       r.engine,
		DefaultQuery: cfg.Catalog.DefaultQuery,
		OAuth: server.FlowOpts{
			Provider:    cfg.Supabase.OAuthProvider,
			Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			RedirectURL: cfg.CallbackURL(),
			Open:        r.openURL,
			Logger:      fileLogger,
		},
		Logger: fileLogger,
	})
	defer model.Close()

	fileLogger.Info("starting tui", "connected", model.Connected())
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
