package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	// The API caps block appends at 100 children per call.
	maxBlocksPerAppend = 100
)

// Config holds destination client configuration.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// Pacing is slept before every block-append batch to avoid bursts.
	Pacing time.Duration
}

// Client is a thin wrapper over the workspace API: query by filter, page
// create/update/retrieve and paginated block appends.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pacing     time.Duration
	logger     *slog.Logger
}

// NewClient creates a destination client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		pacing:     cfg.Pacing,
		logger:     logger.With("store", "notion"),
	}
}

// Page is a destination entity handle with the property values the syncer
// reads back.
type Page struct {
	ID         string                   `json:"id"`
	Properties map[string]PropertyValue `json:"properties"`
}

// PropertyValue carries the subset of property payloads the syncer inspects.
type PropertyValue struct {
	Status *StatusValue `json:"status"`
}

// StatusValue is a status property value.
type StatusValue struct {
	Name string `json:"name"`
}

type queryRequest struct {
	Filter any `json:"filter"`
}

type queryResponse struct {
	Results []Page `json:"results"`
}

// QueryDatabase runs a filtered database query and returns the matching
// pages.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter any) ([]Page, error) {
	var resp queryResponse
	err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", queryRequest{Filter: filter}, &resp)
	if err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}
	return resp.Results, nil
}

// Parent addresses the database a page is created under.
type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id"`
}

// CreatePageRequest is the payload for page creation.
type CreatePageRequest struct {
	Parent     Parent         `json:"parent"`
	Icon       *Icon          `json:"icon,omitempty"`
	Cover      *Icon          `json:"cover,omitempty"`
	Properties map[string]any `json:"properties"`
}

// CreatePage creates a page and returns its handle.
func (c *Client) CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &page, nil
}

// UpdatePageRequest is the payload for property updates.
type UpdatePageRequest struct {
	Icon       *Icon          `json:"icon,omitempty"`
	Cover      *Icon          `json:"cover,omitempty"`
	Properties map[string]any `json:"properties"`
}

// UpdatePage overwrites page properties.
func (c *Client) UpdatePage(ctx context.Context, pageID string, req UpdatePageRequest) error {
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, req, nil); err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return nil
}

// RetrievePage fetches a page with its property values.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/pages/"+pageID, nil, &page); err != nil {
		return nil, fmt.Errorf("retrieve page: %w", err)
	}
	return &page, nil
}

type appendRequest struct {
	Children []Block `json:"children"`
}

// AppendChildren appends body blocks to a page in batches of at most 100,
// pacing between batches. Batch order preserves block order.
func (c *Client) AppendChildren(ctx context.Context, blockID string, children []Block) error {
	for start := 0; start < len(children); start += maxBlocksPerAppend {
		batch := children[start:min(start+maxBlocksPerAppend, len(children))]

		if c.pacing > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pacing):
			}
		}

		err := c.do(ctx, http.MethodPatch, "/blocks/"+blockID+"/children", appendRequest{Children: batch}, nil)
		if err != nil {
			return fmt.Errorf("append children: %w", err)
		}
	}
	return nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("api error %d (%s): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
