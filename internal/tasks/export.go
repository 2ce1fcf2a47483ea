package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/desertthunder/shelf/internal/models"
)

// ExportOpts contains configuration for writing one file per list.
type ExportOpts struct {
	Format     formatter.Format // Export format: json, csv, markdown, txt
	OutputDir  string           // Base output directory (default: shelf_export_{epoch})
	NumWorkers int              // Concurrent workers (default: one per list)
	Covers     bool             // Download thumbnails next to Markdown exports
	Client     *http.Client     // Used for cover downloads
}

// ListExportResult is the outcome of exporting a single list.
type ListExportResult struct {
	List    models.ListName `json:"list"`
	Books   int             `json:"books"`
	Files   []string        `json:"files"`
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
}

// ExportResult summarizes an export run.
type ExportResult struct {
	OutputDirectory string             `json:"output_directory"`
	Format          formatter.Format   `json:"format"`
	Results         []ListExportResult `json:"results"`
	Successful      int                `json:"successful"`
	Failed          int                `json:"failed"`
	ManifestPath    string             `json:"-"`
}

// Export writes every list in b to its own file under opts.OutputDir, followed by a manifest.
//
// Lists are written by a small worker pool; a failed list is recorded and does not stop the others.
func Export(ctx context.Context, prog chan<- ProgressUpdate, b models.Buckets, opts ExportOpts) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("shelf_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 || opts.NumWorkers > len(models.Lists) {
		opts.NumWorkers = len(models.Lists)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(models.Lists)
	jobs := make(chan models.ListName, total)
	results := make(chan ListExportResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, b, opts)
	}

	for _, l := range models.Lists {
		jobs <- l
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	byList := make(map[models.ListName]ListExportResult, total)
	completed := 0
	for res := range results {
		completed++
		byList[res.List] = res
		if res.Success {
			sendProgress(prog, exportCompletedUpdate(completed, total, res.List, res.Files[len(res.Files)-1]))
		} else {
			sendProgress(prog, exportFailedUpdate(completed, total, res.List, fmt.Errorf("%s", res.Error)))
		}
	}

	result := &ExportResult{OutputDirectory: opts.OutputDir, Format: opts.Format}
	for _, l := range models.Lists {
		res, ok := byList[l]
		if !ok {
			res = ListExportResult{List: l, Error: "cancelled", Files: []string{}}
		}
		if res.Success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker exports lists from the jobs channel until it closes or ctx is done.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.ListName,
	results chan<- ListExportResult,
	b models.Buckets,
	opts ExportOpts,
) {
	defer wg.Done()

	for l := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- exportList(ctx, l, b, opts)
	}
}

func exportList(ctx context.Context, l models.ListName, b models.Buckets, opts ExportOpts) ListExportResult {
	result := ListExportResult{List: l, Books: len(b[l]), Files: []string{}}

	var covers map[string]string
	if opts.Covers && opts.Format == formatter.Markdown {
		covers, result.Files = downloadCovers(ctx, b[l], opts)
	}

	path, err := formatter.WriteListExport(b, l, opts.Format, opts.OutputDir, covers)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Files = append(result.Files, path)
	result.Success = true
	return result
}

// downloadCovers saves each thumbnail as {dir}/covers/{book}.jpg. Failed downloads are skipped.
func downloadCovers(ctx context.Context, items []models.CollectionItem, opts ExportOpts) (map[string]string, []string) {
	covers := make(map[string]string)
	var files []string

	dir := filepath.Join(opts.OutputDir, "covers")
	for _, it := range items {
		if it.Book.Thumbnail == "" {
			continue
		}
		data, err := formatter.DownloadImage(ctx, opts.Client, it.Book.Thumbnail)
		if err != nil {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			continue
		}
		name := it.Book.ID + ".jpg"
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			continue
		}
		covers[it.Book.ID] = filepath.ToSlash(filepath.Join("covers", name))
		files = append(files, path)
	}
	return covers, files
}
