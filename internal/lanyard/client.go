package lanyard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// RESTBaseURL is the Lanyard REST API
	RESTBaseURL = "https://api.lanyard.rest/v1"

	// SocketURL is the Lanyard realtime gateway
	SocketURL = "wss://api.lanyard.rest/socket"
)

// ErrNotFound is returned when Lanyard answers with success:false,
// typically because the user is not in the Lanyard guild.
var ErrNotFound = errors.New("discord user not found or Lanyard API error")

// APIError represents a non-2xx response from Lanyard
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status %d, body: %s", e.StatusCode, e.Body)
}

// envelope wraps every REST response
type envelope struct {
	Success bool      `json:"success"`
	Data    *Presence `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client is a Lanyard REST client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Lanyard REST client. An empty baseURL uses RESTBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = RESTBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PresenceURL returns the REST endpoint for a user
func (c *Client) PresenceURL(userID string) string {
	return fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(userID))
}

// GetPresence fetches the current presence of a user.
// The HTTP status is returned alongside the error; it is 0 when no response
// was received.
func (c *Client) GetPresence(ctx context.Context, userID string) (*Presence, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PresenceURL(userID), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	if !env.Success || env.Data == nil {
		if env.Error != nil {
			return nil, resp.StatusCode, fmt.Errorf("%w: %s", ErrNotFound, env.Error.Message)
		}
		return nil, resp.StatusCode, ErrNotFound
	}

	return env.Data, resp.StatusCode, nil
}
