package dashsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/zyra/pkg/telemetry/correlation"
)

const (
	defaultTimeout    = 15 * time.Second
	sessionCookieName = "_sid"
	maxErrorBody      = 64 << 10
)

// APIError is a non-2xx response decoded from the server error envelope.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dashsync: http %d %s", e.Status, e.Type)
	}
	return fmt.Sprintf("dashsync: http %d %s: %s", e.Status, e.Type, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type OptimizeAllResult struct {
	Optimized         int `json:"optimized"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
}

type LogActivityRequest struct {
	Action      string         `json:"action"`
	Description string         `json:"description"`
	ToolUsed    string         `json:"toolUsed,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Client talks to the dashboard API with a cookie session.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the transport; the cookie jar is kept.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		jar := c.http.Jar
		c.http = hc
		if c.http.Jar == nil {
			c.http.Jar = jar
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("dashsync: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("dashsync: base url %q needs a scheme and host", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout, Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SessionToken returns the current session cookie value, if any.
func (c *Client) SessionToken() string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == sessionCookieName {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken restores a session saved by a previous login.
func (c *Client) SetSessionToken(token string) {
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  sessionCookieName,
		Value: token,
		Path:  "/",
	}})
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
}

func (c *Client) Dashboard(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (c *Client) TrackToolAccess(ctx context.Context, tool string) error {
	return c.do(ctx, http.MethodPost, "/api/dashboard/track-tool-access", map[string]string{"toolName": tool}, nil)
}

func (c *Client) LogActivity(ctx context.Context, req LogActivityRequest) error {
	return c.do(ctx, http.MethodPost, "/api/dashboard/log-activity", req, nil)
}

func (c *Client) UpdateUsage(ctx context.Context, field string, increment int64) error {
	return c.do(ctx, http.MethodPost, "/api/dashboard/update-usage", map[string]any{
		"field":     field,
		"increment": increment,
	}, nil)
}

func (c *Client) OptimizeAll(ctx context.Context) (*OptimizeAllResult, error) {
	var out OptimizeAllResult
	if err := c.do(ctx, http.MethodPost, "/api/products/optimize-all", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health probes the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	ctx, _ = correlation.EnsureCorrelationID(ctx)
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	correlation.InjectHeader(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("dashsync: decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Type: http.StatusText(resp.StatusCode)}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Type != "" {
		apiErr.Type = envelope.Error.Type
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
