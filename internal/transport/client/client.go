package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joshdurbin/shortlink/internal/domain"
)

// ErrNotFound is returned when the server has no mapping for a path
var ErrNotFound = errors.New("mapping not found")

// Client represents an HTTP client for the short-link API
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient creates a new short-link client
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ServerURL returns the base URL the client talks to
func (c *Client) ServerURL() string {
	return c.serverURL
}

// WriteMappings submits a batch of write requests and returns one item per request
func (c *Client) WriteMappings(ctx context.Context, requests []domain.WriteRequest) ([]domain.WriteItem, error) {
	jsonData, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/mappings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var items []domain.WriteItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(items) != len(requests) {
		return nil, fmt.Errorf("server returned %d results for %d requests", len(items), len(requests))
	}

	return items, nil
}

// Resolve looks up the URL mapped to path
func (c *Client) Resolve(ctx context.Context, path string) (*domain.ResolveResponse, error) {
	endpoint := c.serverURL + "/api/mappings/" + escapePath(strings.TrimPrefix(path, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("path '%s': %w", path, ErrNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var response domain.ResolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}

// escapePath escapes each segment, keeping the separators
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
