package apiclient

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

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenSource yields the current bearer token, if any.
type TokenSource interface {
	Token() (string, bool)
}

type Config struct {
	BaseURL string
	// Timeout bounds a whole round trip. Zero leaves requests unbounded; the
	// caller's context still applies.
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *slog.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *slog.Logger

	newRequestID func() string
}

func New(cfg Config, tokens TokenSource) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https, got %q", base)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("api timeout must be >= 0")
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		tokens:       tokens,
		log:          logger,
		newRequestID: uuid.NewString,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one call. Form takes precedence over JSON and is sent
// form-urlencoded. Auth attaches the bearer token when one is stored.
type Request struct {
	Method string
	Path   string
	JSON   any
	Form   url.Values
	Auth   bool
}

// Do performs r and returns the raw success payload or one of NetworkError /
// APIError. Requests are never retried.
func (c *Client) Do(ctx context.Context, r Request) (json.RawMessage, error) {
	req, err := c.newHTTPRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	reqID := req.Header.Get("X-Request-Id")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed",
			"method", req.Method, "path", r.Path, "request_id", reqID,
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, &NetworkError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Message: "read response body: " + err.Error(), Err: err}
	}

	res := Normalize(resp.StatusCode, body)
	c.log.Debug("api request",
		"method", req.Method, "path", r.Path, "status", resp.StatusCode,
		"request_id", reqID, "duration_ms", time.Since(start).Milliseconds(),
		"outcome", res.Kind().String())
	return res.Payload, res.Err
}

func (c *Client) newHTTPRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.JSON != nil:
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(r.Path, "/"), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", c.newRequestID())
	if r.Auth && c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// Decode unmarshals a success payload. A payload that does not fit T is a
// malformed response, reported as a NetworkError.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &NetworkError{Message: "malformed response body: " + err.Error(), Err: err}
	}
	return out, nil
}

// Call performs r and decodes the payload into T.
func Call[T any](ctx context.Context, c Doer, r Request) (T, error) {
	raw, err := c.Do(ctx, r)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](raw)
}

// Doer is the part of Client the services depend on.
type Doer interface {
	Do(ctx context.Context, r Request) (json.RawMessage, error)
}
