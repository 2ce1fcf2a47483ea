// package formatter exports assembled reading lists to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists every supported encoding.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat accepts a format name, also allowing "md" and "text". Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Ext is the file extension for f.
func (f Format) Ext() string {
	switch f {
	case Markdown:
		return "md"
	case Text:
		return "txt"
	default:
		return string(f)
	}
}

// Render encodes buckets in format f.
func Render(b models.Buckets, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(b)
	case Markdown:
		return ExportToMarkdown(b, nil)
	case Text:
		return ExportToText(b)
	default:
		return ExportToJSON(b)
	}
}

// listJSON is the export shape of one list.
type listJSON struct {
	List  models.ListName `json:"list"`
	Label string          `json:"label"`
	Books []bookJSON      `json:"books"`
}

type bookJSON struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Description string    `json:"description,omitempty"`
	AddedAt     time.Time `json:"added_at,omitzero"`
}

// ExportToJSON encodes every list, in list order, as an indented JSON array.
func ExportToJSON(b models.Buckets) ([]byte, error) {
	out := make([]listJSON, 0, len(models.Lists))
	for _, l := range models.Lists {
		entry := listJSON{List: l, Label: l.Label(), Books: []bookJSON{}}
		for _, it := range b[l] {
			authors := it.Book.Authors
			if authors == nil {
				authors = []string{}
			}
			entry.Books = append(entry.Books, bookJSON{
				ID:          it.Book.ID,
				Title:       it.Book.DisplayTitle(),
				Authors:     authors,
				Thumbnail:   it.Book.Thumbnail,
				Description: it.Book.Description,
				AddedAt:     it.Entry.CreatedAt,
			})
		}
		out = append(out, entry)
	}
	return shared.MarshalJSON(out, true)
}

// ExportToCSV converts buckets to CSV with columns: List, Book ID, Title, Authors, Added
func ExportToCSV(b models.Buckets) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"List", "Book ID", "Title", "Authors", "Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, l := range models.Lists {
		for _, it := range b[l] {
			added := ""
			if !it.Entry.CreatedAt.IsZero() {
				added = it.Entry.CreatedAt.Format(time.RFC3339)
			}
			record := []string{
				string(l),
				it.Book.ID,
				it.Book.DisplayTitle(),
				strings.Join(it.Book.Authors, "; "),
				added,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders one section per list. covers maps a book ID to a local image file to embed.
func ExportToMarkdown(b models.Buckets, covers map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Reading Lists\n\n")
	buf.WriteString(fmt.Sprintf("**Books**: %d\n\n", b.Len()))

	for _, l := range models.Lists {
		items, ok := b[l]
		if !ok {
			continue
		}
		buf.WriteString(fmt.Sprintf("## %s (%d)\n\n", l.Label(), len(items)))
		if len(items) == 0 {
			buf.WriteString("_Empty_\n\n")
			continue
		}
		for i, it := range items {
			buf.WriteString(fmt.Sprintf("%d. **%s** by %s\n", i+1, it.Book.DisplayTitle(), it.Book.DisplayAuthors()))
			if cover := covers[it.Book.ID]; cover != "" {
				buf.WriteString(fmt.Sprintf("   ![Cover](%s)\n", cover))
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts buckets to plain text
func ExportToText(b models.Buckets) ([]byte, error) {
	var buf bytes.Buffer

	for i, l := range models.Lists {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("%s (%d)\n", l.Label(), len(b[l])))
		for j, it := range b[l] {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", j+1, it.Book.DisplayAuthors(), it.Book.DisplayTitle()))
		}
	}

	return buf.Bytes(), nil
}

// Only returns buckets holding just list l.
func Only(b models.Buckets, l models.ListName) models.Buckets {
	return models.Buckets{l: append([]models.CollectionItem{}, b[l]...)}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteListExport writes list l of b to {dir}/{list}.{ext}. For Markdown, covers are embedded by relative path.
func WriteListExport(b models.Buckets, l models.ListName, f Format, dir string, covers map[string]string) (string, error) {
	only := Only(b, l)

	var (
		data []byte
		err  error
	)
	if f == Markdown {
		data, err = ExportToMarkdown(only, covers)
	} else {
		data, err = Render(only, f)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", l, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s", l, f.Ext()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteFile renders b in format f to path, or to w when path is empty.
func WriteFile(b models.Buckets, f Format, path string, w io.Writer) error {
	data, err := Render(b, f)
	if err != nil {
		return err
	}
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
