package chatwork

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the Chatwork REST endpoint
const DefaultBaseURL = "https://api.chatwork.com/v2"

// ErrNoToken is returned before any network call when the API token is
// missing
var ErrNoToken = errors.New("chatwork API token not configured")

// APIError is a non-success Chatwork response, kept with status and body for
// diagnostics
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatwork API error %d: %s", e.Status, e.Body)
}

// Config for the Chatwork client
type Config struct {
	APIToken    string
	BaseURL     string        // defaults to DefaultBaseURL
	MinInterval time.Duration // global spacing between any two requests
	RateWait    time.Duration // cooldown after a 429 before the single retry
}

// Room is one Chatwork room visible to the token
type Room struct {
	RoomID int64  `json:"room_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// Client posts messages to Chatwork rooms. All requests share one throttle:
// the API rate limit is per token, not per room.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a new Chatwork client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = 500 * time.Millisecond
	}
	if cfg.RateWait == 0 {
		cfg.RateWait = 60 * time.Second
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "chatwork"),
	}
}

// SendMessage posts text to a room. On a 429 the client waits out the
// cooldown once and retries exactly once; a second failure surfaces as an
// APIError.
func (c *Client) SendMessage(ctx context.Context, roomID, body string) error {
	if c.config.APIToken == "" {
		return ErrNoToken
	}

	endpoint := fmt.Sprintf("%s/rooms/%s/messages", c.config.BaseURL, roomID)
	form := url.Values{"body": {body}, "self_unread": {"0"}}

	status, respBody, err := c.post(ctx, endpoint, form)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		c.logger.Warn("chatwork rate limited, retrying after cooldown", "room", roomID, "wait", c.config.RateWait)
		if err := sleepCtx(ctx, c.config.RateWait); err != nil {
			return err
		}
		status, respBody, err = c.post(ctx, endpoint, form)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return &APIError{Status: status, Body: respBody}
	}
	return nil
}

// GetRooms lists the rooms visible to the token
func (c *Client) GetRooms(ctx context.Context) ([]Room, error) {
	if c.config.APIToken == "" {
		return nil, ErrNoToken
	}

	c.throttle(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/rooms", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-ChatWorkToken", c.config.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var rooms []Room
	if err := json.Unmarshal(respBody, &rooms); err != nil {
		return nil, fmt.Errorf("failed to parse rooms: %w", err)
	}
	return rooms, nil
}

// post issues one throttled URL-encoded POST and returns the raw status and
// body; transport failures are the only returned errors
func (c *Client) post(ctx context.Context, endpoint string, form url.Values) (int, string, error) {
	c.throttle(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-ChatWorkToken", c.config.APIToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}

// throttle enforces the minimum spacing between requests across all callers
func (c *Client) throttle(ctx context.Context) {
	c.mu.Lock()
	wait := c.config.MinInterval - time.Since(c.lastRequest)
	if wait > 0 {
		c.mu.Unlock()
		sleepCtx(ctx, wait)
		c.mu.Lock()
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
