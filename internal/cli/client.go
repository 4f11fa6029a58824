// Package cli provides the HTTP client and output writers used by the kotae
// command line.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/search"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// StatusResponse is the shape of GET /api/v1/status.
type StatusResponse struct {
	Engine             search.Stats                     `json:"engine"`
	Ingestions         map[models.IngestionStatus]int64 `json:"ingestions,omitempty"`
	WatchedDirectories []string                         `json:"watched_directories,omitempty"`
	DiskUsageBytes     *int64                           `json:"disk_usage_bytes,omitempty"`
	Config             map[string]interface{}           `json:"config,omitempty"`
}

// DocumentsResponse is the shape of GET /api/v1/documents.
type DocumentsResponse struct {
	Documents []models.Document `json:"documents"`
	Total     int               `json:"total"`
}

// Client talks to a running kotae server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL. timeout bounds each
// request; questions can take as long as the server's generation timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Upload sends the file at path to POST /upload/.
func (c *Client) Upload(ctx context.Context, path string) (*models.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out models.UploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask sends a question to POST /ask/.
func (c *Client) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	var out models.AskResponse
	if err := c.postJSON(ctx, "/ask/", models.AskRequest{Question: question}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a retrieval-only query against POST /api/v1/search.
func (c *Client) Search(ctx context.Context, query string, topK int) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if err := c.postJSON(ctx, "/api/v1/search", models.SearchRequest{Query: query, TopK: topK}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Documents lists the catalog.
func (c *Client) Documents(ctx context.Context) (*DocumentsResponse, error) {
	var out DocumentsResponse
	if err := c.get(ctx, "/api/v1/documents", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches engine and ingestion counts.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.get(ctx, "/api/v1/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(b))
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
