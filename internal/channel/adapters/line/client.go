// Package line talks to the LINE Messaging API: push delivery, sender
// profiles and bot info, plus the shapes of its webhook callbacks.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linebridge/bridge/internal/channel"
)

const (
	// DefaultBaseURL is the production Messaging API host.
	DefaultBaseURL = "https://api.line.me"
	// DefaultTimeout bounds every call made by the client.
	DefaultTimeout = 5 * time.Second

	platformName = "line"
	maxErrorBody = 4 << 10
)

// Client is a minimal Messaging API client. The channel access token is
// supplied per call because every channel pair carries its own.
type Client struct {
	logger  *slog.Logger
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a Client for baseURL (DefaultBaseURL when empty).
func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		logger:  log.With(slog.String("adapter", "line")),
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// Profile is the subset of a LINE profile the bridge uses.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

// BotInfo is the subset of GET /v2/bot/info the bridge uses.
type BotInfo struct {
	UserID      string `json:"userId"`
	BasicID     string `json:"basicId"`
	DisplayName string `json:"displayName"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []wireMessage `json:"messages"`
}

// Push sends messages to one recipient in a single call.
func (c *Client) Push(ctx context.Context, token, to string, messages []channel.Message) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("push target is required")
	}
	if len(messages) == 0 {
		return fmt.Errorf("push requires at least one message")
	}
	wire, err := toWireMessages(messages)
	if err != nil {
		return err
	}
	body, err := json.Marshal(pushRequest{To: to, Messages: wire})
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/v2/bot/message/push", token, body, nil)
}

// Profile looks up the display name of the author of source. Group and room
// sources use the member endpoints, user sources the profile endpoint.
func (c *Client) Profile(ctx context.Context, token string, source channel.MessageSource) (Profile, error) {
	userID := strings.TrimSpace(source.UserID)
	if userID == "" {
		return Profile{}, fmt.Errorf("source has no user id")
	}
	var path string
	switch source.Kind {
	case channel.SourceGroup:
		if strings.TrimSpace(source.GroupID) == "" {
			return Profile{}, fmt.Errorf("group source has no group id")
		}
		path = "/v2/bot/group/" + url.PathEscape(strings.TrimSpace(source.GroupID)) + "/member/" + url.PathEscape(userID)
	case channel.SourceRoom:
		if strings.TrimSpace(source.RoomID) == "" {
			return Profile{}, fmt.Errorf("room source has no room id")
		}
		path = "/v2/bot/room/" + url.PathEscape(strings.TrimSpace(source.RoomID)) + "/member/" + url.PathEscape(userID)
	default:
		path = "/v2/bot/profile/" + url.PathEscape(userID)
	}
	var profile Profile
	if err := c.do(ctx, http.MethodGet, path, token, nil, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// BotInfo returns the bot identity the token belongs to. It doubles as a
// token validity check.
func (c *Client) BotInfo(ctx context.Context, token string) (BotInfo, error) {
	var info BotInfo
	if err := c.do(ctx, http.MethodGet, "/v2/bot/info", token, nil, &info); err != nil {
		return BotInfo{}, err
	}
	return info, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("line %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &channel.UpstreamError{Platform: platformName, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode line response: %w", err)
	}
	return nil
}
