package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// BaseURL is the versioned Discord REST API
	BaseURL = "https://discord.com/api/v10"

	// LegacyBaseURL is the pre-rebrand domain, still serving the widget endpoint
	LegacyBaseURL = "https://discordapp.com/api"
)

// ErrInvalidWidget is returned when a widget response carries no guild name,
// which is how Discord reports a disabled widget.
var ErrInvalidWidget = errors.New("widget response has no name")

// APIError represents a non-2xx response from Discord
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status %d, body: %s", e.StatusCode, e.Body)
}

// Options configures a Client
type Options struct {
	BaseURL       string
	LegacyBaseURL string
	Timeout       time.Duration
}

// Client is an unauthenticated Discord REST client for the public widget and
// invite endpoints.
type Client struct {
	baseURL       string
	legacyBaseURL string
	httpClient    *http.Client

	// Simple rate limiter
	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewClient creates a new Discord API client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.LegacyBaseURL == "" {
		opts.LegacyBaseURL = LegacyBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		legacyBaseURL: strings.TrimRight(opts.LegacyBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		// Public endpoints share the global limit; stay well under it
		minInterval: 50 * time.Millisecond,
	}
}

// wait blocks until the rate limiter allows another request
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.minInterval {
		timer := time.NewTimer(c.minInterval - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// get performs a GET request and decodes the JSON response.
// The returned status is 0 when no response was received.
func (c *Client) get(ctx context.Context, url string, result interface{}) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	return resp.StatusCode, nil
}
