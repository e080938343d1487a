// Package teams posts relayed text to Microsoft Teams incoming webhooks.
package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/linebridge/bridge/internal/channel"
)

// DefaultTimeout bounds a single webhook post.
const DefaultTimeout = 5 * time.Second

const maxErrorBody = 4 << 10

// Client posts {"text": ...} payloads to a webhook endpoint.
type Client struct {
	logger  *slog.Logger
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a Client.
func NewClient(log *slog.Logger, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		logger:  log.With(slog.String("adapter", "teams")),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

type textPayload struct {
	Text string `json:"text"`
}

// PostText delivers text to endpoint. A non-2xx answer is returned as
// *channel.UpstreamError.
func (c *Client) PostText(ctx context.Context, endpoint, text string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("teams endpoint is required")
	}
	body, err := json.Marshal(textPayload{Text: text})
	if err != nil {
		return fmt.Errorf("encode teams payload: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("teams post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &channel.UpstreamError{Platform: "teams", Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.logger.Debug("teams post delivered", slog.Int("status", resp.StatusCode))
	return nil
}
