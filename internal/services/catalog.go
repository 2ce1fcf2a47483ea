// Google Books catalog client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

const defaultCatalogURL string = "https://www.googleapis.com/books/v1"

// volume is the subset of a Google Books volume resource we read.
type volume struct {
	ID         string `json:"id"`
	VolumeInfo *struct {
		Title      string   `json:"title"`
		Authors    []string `json:"authors"`
		ImageLinks *struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
		Description string `json:"description"`
	} `json:"volumeInfo"`
}

func (v volume) book() models.Book {
	b := models.Book{ID: v.ID, Authors: []string{}}
	if v.VolumeInfo == nil {
		return b
	}
	b.Title = v.VolumeInfo.Title
	if v.VolumeInfo.Authors != nil {
		b.Authors = v.VolumeInfo.Authors
	}
	b.Description = v.VolumeInfo.Description
	if v.VolumeInfo.ImageLinks != nil {
		b.Thumbnail = v.VolumeInfo.ImageLinks.Thumbnail
	}
	return b
}

// CatalogService is a read-only client for the public book catalog.
type CatalogService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewCatalogService creates a catalog client. An empty baseURL uses the Google Books v1 API.
func NewCatalogService(baseURL, apiKey string, client *http.Client, logger *log.Logger) *CatalogService {
	if baseURL == "" {
		baseURL = defaultCatalogURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	return &CatalogService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
		logger:     logger,
	}
}

// Search issues a single query against /volumes.
//
// A response object without an items list is an empty result, not an error.
func (c *CatalogService) Search(ctx context.Context, query string) ([]models.Book, error) {
	if strings.TrimSpace(query) == "" {
		return nil, shared.Validation(shared.MsgEmptyQuery)
	}

	q := url.Values{}
	q.Set("q", query)

	body, err := c.get(ctx, "/volumes", q, shared.MsgSearchFailed)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, shared.NewError(shared.ErrProtocol, shared.MsgInvalidResponse, err)
	}

	items := bytes.TrimSpace(resp.Items)
	if len(items) == 0 || items[0] != '[' {
		c.logger.Debug("search returned no items", "query", query)
		return []models.Book{}, nil
	}

	var volumes []volume
	if err := json.Unmarshal(items, &volumes); err != nil {
		return nil, shared.NewError(shared.ErrProtocol, shared.MsgInvalidResponse, err)
	}

	books := make([]models.Book, 0, len(volumes))
	for _, v := range volumes {
		if v.VolumeInfo == nil {
			c.logger.Debug("skipping volume without volumeInfo", "id", v.ID)
			continue
		}
		books = append(books, v.book())
	}
	return books, nil
}

// Volume fetches the detail of a single book by its catalog identifier.
func (c *CatalogService) Volume(ctx context.Context, id string) (models.Book, error) {
	if strings.TrimSpace(id) == "" {
		return models.Book{}, shared.Validation(shared.MsgEmptyBookID)
	}

	body, err := c.get(ctx, "/volumes/"+url.PathEscape(id), url.Values{}, shared.MsgLookupFailed)
	if err != nil {
		return models.Book{}, err
	}

	var v volume
	if err := json.Unmarshal(body, &v); err != nil {
		return models.Book{}, shared.NewError(shared.ErrProtocol, shared.MsgInvalidResponse, err)
	}
	if v.ID == "" {
		v.ID = id
	}
	return v.book(), nil
}

// get performs the request and returns the body only when it is a JSON object.
//
// A non-2xx status is reported with failed followed by the HTTP status.
func (c *CatalogService) get(ctx context.Context, path string, q url.Values, failed shared.MessageID) ([]byte, error) {
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + path
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewError(shared.ErrTransport, shared.MsgNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &shared.Error{
			Kind:    shared.ErrTransport,
			Message: fmt.Sprintf("%s: %s", shared.Message(failed), resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shared.NewError(shared.ErrTransport, shared.MsgNetwork, err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, shared.NewError(shared.ErrProtocol, shared.MsgInvalidResponse, fmt.Errorf("expected a JSON object"))
	}
	return body, nil
}
