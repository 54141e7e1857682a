// Package api implements the JSON transport to the remote control service.
//
// The transport is deliberately thin: it forwards operation names and
// arguments opaquely and reports result-or-error envelopes back to the
// caller. No operation-specific knowledge lives here, and nothing is
// retried. Callers degrade gracefully on failure by keeping whatever
// state they last saw.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pinctl/pinctl/internal/errors"
	"github.com/pinctl/pinctl/internal/logger"
)

// Invoker dispatches a named operation with arguments. Satisfied by *Client;
// fakes implement it in tests and the invocation form model depends on it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]interface{}) (json.RawMessage, error)
}

// StatusSource fetches the current snapshot and metric readings.
// The sync scheduler polls through this interface.
type StatusSource interface {
	FetchStatus(ctx context.Context) (*Snapshot, error)
	FetchSystemMetrics(ctx context.Context) (*SystemMetrics, error)
	FetchNetworkMetrics(ctx context.Context, windowSeconds int) ([]NetworkPoint, error)
	FetchDeprecations(ctx context.Context) ([]DeprecationNotice, error)
}

// Client is the HTTP transport to the control service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger for transport diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a transport for the service at baseURL.
// apiKey may be empty; timeout applies per request.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     logger.NewEnvLogger("[api]"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIKey returns the configured API key (empty when auth is disabled).
func (c *Client) APIKey() string {
	return c.apiKey
}

// Invoke calls the named operation with the given arguments and returns the
// raw result payload. A remote error envelope comes back as an ErrInvoke
// error carrying the payload verbatim; network failures are ErrTransport.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]interface{}) (json.RawMessage, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	body, err := json.Marshal(callRequest{Name: name, Args: args})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrInvoke,
			"Cannot encode arguments for "+name,
			"Check the argument values are JSON-serializable")
	}

	c.log.Debug("invoke %s %s", name, body)

	var resp callResponse
	if err := c.postJSON(ctx, "/api/call", body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Error) > 0 {
		// Remote error envelopes are surfaced verbatim, not translated.
		return nil, &InvokeError{Operation: name, Payload: resp.Error}
	}
	return resp.Result, nil
}

// FetchStatus retrieves the current service snapshot.
func (c *Client) FetchStatus(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if err := c.getJSON(ctx, "/api/status", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FetchSystemMetrics retrieves the instantaneous utilization reading.
func (c *Client) FetchSystemMetrics(ctx context.Context) (*SystemMetrics, error) {
	var m SystemMetrics
	if err := c.getJSON(ctx, "/api/metrics/system", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// FetchNetworkMetrics retrieves throughput samples for the last windowSeconds.
func (c *Client) FetchNetworkMetrics(ctx context.Context, windowSeconds int) ([]NetworkPoint, error) {
	path := "/api/metrics/network"
	if windowSeconds > 0 {
		path += "?window=" + strconv.Itoa(windowSeconds)
	}
	var resp networkResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Points, nil
}

// FetchDeprecations retrieves the server's deprecation notice list.
// Called once at startup when the push channel has not delivered any yet.
func (c *Client) FetchDeprecations(ctx context.Context) ([]DeprecationNotice, error) {
	var resp deprecationsResponse
	if err := c.getJSON(ctx, "/api/deprecations", &resp); err != nil {
		return nil, err
	}
	return resp.Deprecated, nil
}

// WebSocketURL returns the push channel endpoint derived from the base URL.
func (c *Client) WebSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid server URL: "+c.baseURL,
			"Fix server.url in the config file")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/ws"
	return u.String(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTransport,
			"Cannot build request for "+path, "")
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTransport,
			"Cannot build request for "+path, "")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTransport,
			"Cannot reach "+c.baseURL,
			"Check the service is running and server.url is correct")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTransport,
			"Failed reading response from "+req.URL.Path, "")
	}

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrTransport,
			fmt.Sprintf("%s returned %s", req.URL.Path, resp.Status),
			"Check the service logs and the configured API key")
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.WrapWithCode(err, errors.ErrTransport,
			"Unexpected response shape from "+req.URL.Path, "")
	}
	return nil
}

// InvokeError is a remote error envelope returned by an operation.
// The payload is the service's error value, passed through unchanged.
type InvokeError struct {
	Operation string
	Payload   json.RawMessage
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("operation %s failed: %s", e.Operation, e.Payload)
}
