package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelf/internal/repositories"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config file with default settings at the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\nSet supabase.url and supabase.anon_key (or SUPABASE_URL / SUPABASE_ANON_KEY) to save books.\n", path)
}

// SetupDatabase creates the book_lists table for the configured store backend.
//
// sqlite and postgres are migrated directly. For postgrest the schema is printed so it can be run in the Supabase SQL editor.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config

	switch cfg.Store.Backend {
	case shared.BackendSQLite:
		return r.setupSQLite(ctx, cmd)
	case shared.BackendPostgres:
		if cfg.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for the postgres backend", shared.ErrMissingConfig)
		}
		r.logger.Info("migrating postgres store")
		pg, err := repositories.OpenPostgresStore(ctx, cfg.Store.DSN, cfg.Store.MaxOpenConns)
		if err != nil {
			return err
		}
		defer pg.Close()
		return r.writePlain("✓ book_lists is ready\n")
	default:
		migrations, err := shared.LoadMigrations()
		if err != nil {
			return err
		}
		policies, err := shared.SupabasePolicies()
		if err != nil {
			return err
		}
		r.writePlain("-- Run in the Supabase SQL editor:\n\n")
		for _, m := range migrations {
			r.writePlain("-- %04d %s\n%s\n", m.Version, m.Name, m.Up)
		}
		return r.writePlain("%s", policies)
	}
}

func (r *Runner) setupSQLite(ctx context.Context, cmd *cli.Command) error {
	path, err := shared.ExpandHome(r.config.Store.Path)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: store.path is required for the sqlite backend", shared.ErrMissingConfig)
	}

	r.logger.Info("initializing database", "path", path)
	lite, err := repositories.OpenSQLiteStore(ctx, path, r.config.Store.MaxOpenConns, r.config.Store.MaxIdleConns)
	if err != nil {
		return err
	}
	defer lite.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(ctx, lite.DB()); err != nil {
			return err
		}
		r.writePlain("✓ Rolled back the latest migration\n")
	}

	if cmd.Bool("status") || cmd.Bool("rollback") {
		statuses, err := shared.Migrations(ctx, lite.DB())
		if err != nil {
			return err
		}
		r.writePlainHeader("Migrations: " + path)
		for _, s := range statuses {
			mark := "✗"
			if s.Applied {
				mark = "✓"
			}
			r.writePlain("%s %04d %s\n", mark, s.Version, s.Name)
		}
		return nil
	}

	return r.writePlain("✓ Database ready at %s\n", path)
}
