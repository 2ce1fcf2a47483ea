package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"
)

// Search queries the catalog and prints the matching books.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))

	r.logger.Debug("searching catalog", "query", query)
	books, err := r.catalog.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(books, cmd.Bool("pretty"))
	}

	if len(books) == 0 {
		return r.writePlain("No books found for %q\n", query)
	}

	r.writePlain("Found %d books for %q\n\n", len(books), query)
	for i, b := range books {
		r.writePlain("%2d. %s\n", i+1, b.DisplayTitle())
		r.writePlain("    %s\n", b.DisplayAuthors())
		r.writePlain("    id: %s\n", b.ID)
	}
	return nil
}
