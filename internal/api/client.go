package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"burnish/internal/pipeline"
)

// Client talks to a running daemon's HTTP API. Used by the CLI.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the daemon listening at bind (host:port).
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Submit sends a submission for evaluation and waits for the verdict.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	var out SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/submissions", req, &out); err != nil {
		return SubmitResponse{}, err
	}
	return out, nil
}

// GetResult fetches the stored result for one submission id.
func (c *Client) GetResult(ctx context.Context, submissionID string) (pipeline.Result, error) {
	var out ResultResponse
	path := "/api/results/" + url.PathEscape(submissionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return pipeline.Result{}, err
	}
	return out.Result, nil
}

// ListResults fetches stored results, optionally filtered by verdict.
func (c *Client) ListResults(ctx context.Context, verdict string, limit int) ([]pipeline.Result, error) {
	path := "/api/results"
	params := url.Values{}
	if verdict = strings.TrimSpace(verdict); verdict != "" {
		params.Set("verdict", verdict)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out ResultsListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ClearResults removes every stored result.
func (c *Client) ClearResults(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/results", nil, nil)
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr ErrorResponse
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
