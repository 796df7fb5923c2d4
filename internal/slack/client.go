// Package slack implements the small slice of the Slack Web API the
// notification pipeline needs: resolving users by email, opening direct
// message channels, and posting Block Kit messages.
package slack

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

	"github.com/example/room-booking/internal/store"
)

const (
	defaultBaseURL = "https://slack.com/api"
	lookupCacheTTL = time.Hour
)

var (
	// ErrUserNotFound is returned when no workspace user matches the email.
	ErrUserNotFound = errors.New("slack: user not found")
)

// Client is a minimal Slack Web API client. Lookup results are cached for
// an hour; a stale entry only delays roster changes, never correctness.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	overrides    map[string]string
	userCache    store.Cache
	channelCache store.Cache
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithBaseURL points the client at a different API endpoint, typically a
// test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithUserOverrides installs a fixed email-to-user-id table consulted before
// any API lookup.
func WithUserOverrides(overrides map[string]string) Option {
	return func(c *Client) {
		for email, userID := range overrides {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" || userID == "" {
				continue
			}
			c.overrides[email] = userID
		}
	}
}

// NewClient builds a Slack API client authenticated with a bot token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		baseURL:      defaultBaseURL,
		token:        token,
		overrides:    make(map[string]string),
		userCache:    store.NewTTLCache(512, lookupCacheTTL),
		channelCache: store.NewTTLCache(512, lookupCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is an ok=false response from the Slack Web API.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s failed: %s", e.Method, e.Code)
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	User  *struct {
		ID string `json:"id"`
	} `json:"user"`
	Channel *struct {
		ID string `json:"id"`
	} `json:"channel"`
	TS string `json:"ts"`
}

// UserIDByEmail resolves a workspace user id for an email address.
// Configured overrides win over the directory lookup.
func (c *Client) UserIDByEmail(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrUserNotFound
	}
	if userID, ok := c.overrides[email]; ok {
		return userID, nil
	}
	if userID, ok := c.userCache.Get(email); ok {
		return userID, nil
	}

	form := url.Values{"email": []string{email}}
	envelope, err := c.callForm(ctx, "users.lookupByEmail", form)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "users_not_found" {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if envelope.User == nil || envelope.User.ID == "" {
		return "", ErrUserNotFound
	}
	c.userCache.Put(email, envelope.User.ID)
	return envelope.User.ID, nil
}

// OpenDirectChannel opens (or reuses) a direct message channel with a user.
func (c *Client) OpenDirectChannel(ctx context.Context, userID string) (string, error) {
	if channelID, ok := c.channelCache.Get(userID); ok {
		return channelID, nil
	}
	body := map[string]string{"users": userID}
	envelope, err := c.callJSON(ctx, "conversations.open", body)
	if err != nil {
		return "", err
	}
	if envelope.Channel == nil || envelope.Channel.ID == "" {
		return "", &APIError{Method: "conversations.open", Code: "missing_channel"}
	}
	c.channelCache.Put(userID, envelope.Channel.ID)
	return envelope.Channel.ID, nil
}

// PostMessage posts a message to a channel. Text is the notification
// fallback shown where blocks cannot render.
func (c *Client) PostMessage(ctx context.Context, channelID string, msg Message) error {
	body := map[string]any{
		"channel": channelID,
		"text":    msg.Text,
	}
	if len(msg.Blocks) > 0 {
		body["blocks"] = msg.Blocks
	}
	_, err := c.callJSON(ctx, "chat.postMessage", body)
	return err
}

func (c *Client) callForm(ctx context.Context, method string, form url.Values) (*apiEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, method)
}

func (c *Client) callJSON(ctx context.Context, method string, body any) (*apiEnvelope, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode slack request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return c.send(req, method)
}

func (c *Client) send(req *http.Request, method string) (*apiEnvelope, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Method: method, Code: fmt.Sprintf("http_%d", resp.StatusCode)}
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode slack %s response: %w", method, err)
	}
	if !envelope.OK {
		code := envelope.Error
		if code == "" {
			code = "unknown_error"
		}
		return nil, &APIError{Method: method, Code: code}
	}
	return &envelope, nil
}
