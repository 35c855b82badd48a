// Package syncclient talks to the ironlog server's sync API over HTTP.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/syncengine"
)

// Client is a syncengine.Remote over HTTP, authenticated with a bearer token.
type Client struct {
	serverURL  string
	token      string
	httpClient *http.Client
}

var _ syncengine.Remote = (*Client)(nil)

// New creates a client for serverURL. An empty token makes every call fail with
// syncengine.ErrAuthRequired without touching the network.
func New(serverURL, token string) *Client {
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Push sends locally changed records and returns the server's sync instant.
func (c *Client) Push(ctx context.Context, req models.PushRequest) (time.Time, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("marshaling push: %w", err)
	}
	var resp models.PushResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/sync/push", bytes.NewReader(data), &resp); err != nil {
		return time.Time{}, err
	}
	return resp.SyncedAt, nil
}

// Pull fetches records changed at or after since. A zero since pulls everything.
func (c *Client) Pull(ctx context.Context, since time.Time) (*models.SyncData, time.Time, error) {
	path := "/api/v1/sync/pull"
	if !since.IsZero() {
		path += "?" + url.Values{"since": {since.UTC().Format(time.RFC3339Nano)}}.Encode()
	}
	var resp models.PullResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, time.Time{}, err
	}
	resp.Data.EnsureSlices()
	return &resp.Data, resp.SyncedAt, nil
}

// RequestToken obtains a bearer token using the server's API key.
func RequestToken(ctx context.Context, serverURL, apiKey string, tr models.TokenRequest) (*models.TokenResponse, error) {
	data, err := json.Marshal(tr)
	if err != nil {
		return nil, fmt.Errorf("marshaling token request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(serverURL, "/")+"/api/v1/auth/token", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed (status %d): %s", resp.StatusCode, body)
	}
	var out models.TokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if c.token == "" {
		return syncengine.ErrAuthRequired
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", syncengine.ErrTransient, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", syncengine.ErrTransient, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return syncengine.ErrAuthRequired
	case http.StatusServiceUnavailable:
		return syncengine.ErrNotConfigured
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", syncengine.ErrInvalidPayload, errorMessage(data))
	default:
		return fmt.Errorf("%w: %s returned %d: %s", syncengine.ErrTransient, path, resp.StatusCode, errorMessage(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", syncengine.ErrTransient, path, err)
	}
	return nil
}

// errorMessage extracts the server's error text, falling back to the raw body.
func errorMessage(body []byte) string {
	var e models.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
