// Package client is a Go consumer of the ridesharing REST API. Client performs
// the authenticated calls; Store keeps a locally cached, sorted and paged view
// of one entity kept consistent with the server by re-fetching after mutations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Second

// MIMEMergePatch is the content type used by PartialUpdate.
const MIMEMergePatch = "application/merge-patch+json"

// Alert is the notification the server attaches to a response, such as
// "ridesharingApp.ride.created" with the id as Param.
type Alert struct {
	Key   string
	Param string
	// Error is set when the alert came from the error header.
	Error bool
}

// APIError is a non-2xx response decoded from the server's problem body.
type APIError struct {
	Status      int               `json:"status"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	EntityName  string            `json:"entityName"`
	ErrorKey    string            `json:"errorKey"`
	FieldErrors map[string]string `json:"fieldErrors"`
}

func (e *APIError) Error() string {
	if e.ErrorKey != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Title, e.ErrorKey)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Title)
}

// Client talks to one server. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	app     string

	mu    sync.RWMutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAppName sets the application name used in alert header names.
func WithAppName(app string) Option {
	return func(c *Client) { c.app = app }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		app:     "ridesharingApp",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticate exchanges credentials for a token and keeps it for later calls.
func (c *Client) Authenticate(ctx context.Context, login, password string) error {
	var out struct {
		IDToken string `json:"id_token"`
	}
	in := map[string]string{"login": login, "password": password}
	if _, err := c.Do(ctx, http.MethodPost, "/api/authenticate", "", in, &out); err != nil {
		return err
	}
	if out.IDToken == "" {
		return fmt.Errorf("authenticate: empty id_token in response")
	}
	c.SetToken(out.IDToken)
	return nil
}

// Response describes a completed call.
type Response struct {
	Status int
	Header http.Header
	Alert  *Alert
}

// Do sends in as JSON (when non-nil) and decodes a successful body into out
// (when non-nil). Non-2xx answers are returned as *APIError alongside the
// Response so that callers can still read the alert.
func (c *Client) Do(ctx context.Context, method, path, contentType string, in, out any) (*Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	r := &Response{Status: resp.StatusCode, Header: resp.Header, Alert: c.alert(resp.Header)}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Title = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return r, apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return r, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return r, nil
}

func (c *Client) alert(h http.Header) *Alert {
	param := h.Get("X-" + c.app + "-params")
	if key := h.Get("X-" + c.app + "-alert"); key != "" {
		return &Alert{Key: key, Param: param}
	}
	if key := h.Get("X-" + c.app + "-error"); key != "" {
		return &Alert{Key: key, Param: param, Error: true}
	}
	return nil
}
