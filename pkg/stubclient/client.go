// Package stubclient is an HTTP client for the stub store admin API
// (/stubapi/). Every operation is addressed by target and, for single
// stubs, by path.
package stubclient

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

	"github.com/getmockd/stubrouter/pkg/form"
	"github.com/getmockd/stubrouter/pkg/logging"
	"github.com/getmockd/stubrouter/pkg/stub"
)

// APIPath is the mount point of the stub store API.
const APIPath = "/stubapi/"

// DefaultTimeout is the HTTP timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// Client talks to a stub store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string // optional bearer token
	log        *slog.Logger
}

type tokenKey struct{}

// ContextWithToken returns a context whose requests carry token instead of
// the client's own token.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the store at baseURL (scheme and host, with an
// optional path prefix).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListStubs returns every stub of target in store order. On any failure it
// returns a nil set; a partially decoded listing is never returned.
func (c *Client) ListStubs(ctx context.Context, target string) (stub.Set, error) {
	if target == "" {
		return nil, ErrNoTarget
	}

	resp, err := c.get(ctx, query(target, ""))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	var set stub.Set
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode stubs of %q: %w", target, err)
	}
	if set == nil {
		set = stub.Set{}
	}
	return set, nil
}

// GetStub returns a single stub. It returns ErrNotFound if the store does
// not know the path.
func (c *Client) GetStub(ctx context.Context, target, path string) (*stub.Stub, error) {
	if err := checkAddress(target, path); err != nil {
		return nil, err
	}

	resp, err := c.get(ctx, query(target, path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var s stub.Stub
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode stub %q: %w", path, err)
	}
	return &s, nil
}

// SaveStub creates or replaces the stub at (target, path) with the given
// form values. Only a 200 response counts as success.
func (c *Client) SaveStub(ctx context.Context, target, path string, v form.Values) error {
	if err := checkAddress(target, path); err != nil {
		return err
	}

	resp, err := c.post(ctx, query(target, path), v)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// DeleteStub removes the stub at (target, path). Only a 200 response counts
// as success; a missing stub yields ErrNotFound.
func (c *Client) DeleteStub(ctx context.Context, target, path string) error {
	if err := checkAddress(target, path); err != nil {
		return err
	}

	resp, err := c.delete(ctx, query(target, path))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

func checkAddress(target, path string) error {
	if target == "" {
		return ErrNoTarget
	}
	if path == "" {
		return stub.ErrEmptyPath
	}
	return nil
}

func query(target, path string) string {
	q := url.Values{"target": {target}}
	if path != "" {
		q.Set("path", path)
	}
	return APIPath + "?" + q.Encode()
}

// HTTP helpers

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	token := c.token
	if t, ok := req.Context().Value(tokenKey{}).(string); ok && t != "" {
		token = t
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
	}
	c.log.Debug("stub store request", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		apiErr.Code = errResp.Error
		apiErr.Message = errResp.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
