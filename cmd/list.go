package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

func bookIDArg(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("book-id"))
	if id == "" {
		return "", shared.Validation(shared.MsgEmptyBookID)
	}
	return id, nil
}

func listArg(cmd *cli.Command, name string) (models.ListName, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return "", fmt.Errorf("%w: <%s> (one of want-to-read, reading, finished)", shared.ErrMissingArgument, name)
	}
	return models.ParseListName(raw)
}

// ListAdd files a book into one of the user's lists.
func (r *Runner) ListAdd(ctx context.Context, cmd *cli.Command) error {
	bookID, err := bookIDArg(cmd)
	if err != nil {
		return err
	}
	l, err := listArg(cmd, "list")
	if err != nil {
		return err
	}

	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	s, err := r.session(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("adding to list", "book", bookID, "list", l)
	if err := store.AddToList(ctx, s, bookID, l); err != nil {
		return err
	}
	return r.writePlain("✓ %s (%s)\n", shared.Message(shared.MsgAddedToList), l.Label())
}

// ListMove moves a book from one list to another.
func (r *Runner) ListMove(ctx context.Context, cmd *cli.Command) error {
	bookID, err := bookIDArg(cmd)
	if err != nil {
		return err
	}
	from, err := listArg(cmd, "from")
	if err != nil {
		return err
	}
	to, err := listArg(cmd, "to")
	if err != nil {
		return err
	}

	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	s, err := r.session(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("moving book", "book", bookID, "from", from, "to", to)
	if err := store.MoveToList(ctx, s, bookID, from, to); err != nil {
		return err
	}
	return r.writePlain("✓ %s (%s → %s)\n", shared.Message(shared.MsgMovedToList), from.Label(), to.Label())
}

// assemble loads the signed-in user's lists with book details, reporting progress through report.
func (r *Runner) assemble(ctx context.Context, report func(tasks.ProgressUpdate)) (*tasks.AssemblyResult, error) {
	if _, err := r.store(ctx); err != nil {
		return nil, err
	}
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	progressCh := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			report(update)
		}
	}()

	result, err := r.engine.Assemble(ctx, s, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return nil, err
	}
	for _, f := range result.Failures {
		r.logger.Warn("book unavailable", "book", f.BookID, "error", f.Err)
	}
	return result, nil
}

// ListShow prints the user's lists, or one of them, in the requested format.
func (r *Runner) ListShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var only models.ListName
	if raw := cmd.String("list"); raw != "" {
		if only, err = models.ParseListName(raw); err != nil {
			return err
		}
	}

	result, err := r.assemble(ctx, func(u tasks.ProgressUpdate) {
		r.logger.Debug(u.Message, "phase", u.Phase)
	})
	if err != nil {
		return err
	}

	b := result.Buckets
	if only != "" {
		b = formatter.Only(b, only)
	}

	output := cmd.String("output")
	if err := formatter.WriteFile(b, format, output, r.output); err != nil {
		return fmt.Errorf("failed to write lists: %w", err)
	}
	if output != "" {
		r.writePlain("✓ Wrote %d books to %s\n", b.Len(), output)
	}
	return nil
}

// ListExport writes every list to its own file with a manifest.
func (r *Runner) ListExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.writePlain("Exporting your lists...\n\n")
	result, err := r.assemble(ctx, func(u tasks.ProgressUpdate) {
		switch u.Phase {
		case tasks.FetchEntries:
			r.writePlain("📥 %s\n", u.Message)
		case tasks.Assembled:
			r.writePlain("📚 %s\n\n", u.Message)
		}
	})
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, len(models.Lists))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("   %s\n", update.Message)
		}
	}()

	export, err := tasks.Export(ctx, progressCh, result.Buckets, tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		Covers:     cmd.Bool("covers"),
		Client:     r.httpClient,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("Export Complete!")
	r.writePlain("Directory: %s\n", export.OutputDirectory)
	r.writePlain("Format: %s\n", export.Format)
	r.writePlain("Lists: %d exported, %d failed\n", export.Successful, export.Failed)
	if export.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", export.ManifestPath)
	}
	if export.Failed > 0 {
		for _, res := range export.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.List.Label(), res.Error)
			}
		}
	}
	return nil
}
