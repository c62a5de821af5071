package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
	"github.com/happyrobot-antonio/rechazos/internal/shared/config"
)

// Client talks to the rejection case API
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates an API client from config
func New(cfg config.ClientConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// NewWithBaseURL creates a client against an explicit base URL, mostly
// useful in tests
func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) { c.token = token }

// ListResult is the paginated list response
type ListResult struct {
	Cases []domain.Case `json:"cases"`
	Total int           `json:"total"`
}

// ListOptions narrows a List call
type ListOptions struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// List fetches cases matching the options
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/cases"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result ListResult
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches one case with its full timeline
func (c *Client) Get(ctx context.Context, codigoSC string) (*domain.Case, error) {
	var result domain.Case
	if err := c.do(ctx, http.MethodGet, "/cases/"+url.PathEscape(codigoSC), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create submits a case under the given duplicate policy and returns the
// authoritative record the server persisted
func (c *Client) Create(ctx context.Context, in *domain.Case, mode domain.DuplicateMode) (*domain.Case, error) {
	body := struct {
		domain.Case
		DuplicateMode string `json:"duplicateMode"`
	}{Case: *in, DuplicateMode: string(mode)}

	var result domain.Case
	if err := c.do(ctx, http.MethodPost, "/cases", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update applies a partial field update and returns the updated case
func (c *Client) Update(ctx context.Context, codigoSC string, fields map[string]any) (*domain.Case, error) {
	var result domain.Case
	path := "/cases/" + url.PathEscape(codigoSC) + "/update"
	if err := c.do(ctx, http.MethodPost, path, fields, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a case
func (c *Client) Delete(ctx context.Context, codigoSC string) error {
	return c.do(ctx, http.MethodPost, "/cases/"+url.PathEscape(codigoSC)+"/delete", nil, nil)
}

// Stats fetches the dashboard aggregates
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var result domain.Stats
	if err := c.do(ctx, http.MethodGet, "/cases/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListEvents fetches a case's timeline, newest first
func (c *Client) ListEvents(ctx context.Context, codigoSC string) ([]domain.TimelineEvent, error) {
	var result []domain.TimelineEvent
	path := "/cases/" + url.PathEscape(codigoSC) + "/events"
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateEventInput is the payload for appending a timeline event
type CreateEventInput struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// CreateEvent appends a timeline event to a case
func (c *Client) CreateEvent(ctx context.Context, codigoSC string, in CreateEventInput) (*domain.TimelineEvent, error) {
	var result domain.TimelineEvent
	path := "/cases/" + url.PathEscape(codigoSC) + "/events"
	if err := c.do(ctx, http.MethodPost, path, in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}
