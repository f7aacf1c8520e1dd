// Package transform calls the external document transformation service. The
// service owns the AI side (translation, summarization); this client only
// moves bytes across the contract boundary.
package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Adeniyi-Bella/admina-backend/internal/queue"
)

// Client posts job entries to the transformation service and returns the
// generated document bytes.
type Client struct {
	url  string
	http *http.Client
}

// NewClient constructs a Client. Transformations are long-running, so the
// timeout should be generous.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Transform sends the entry to the service and returns the response body.
func (c *Client) Transform(ctx context.Context, entry queue.Entry) ([]byte, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call transform service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("transform service returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transform response: %w", err)
	}
	return data, nil
}
