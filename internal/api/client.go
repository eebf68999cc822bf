// Package api is the HTTP client for the remote task service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/apperr"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Plain-text error bodies longer than this (HTML error pages) are dropped.
const maxPlainError = 200

// Client talks to the remote authority. It holds no session state: callers
// pass the bearer token on every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a client-side request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client rooted at baseURL, e.g. https://host.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("component", "api")
	return c
}

type errorBody struct {
	Msg     string `json:"msg"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	switch {
	case b.Msg != "":
		return b.Msg
	case b.Message != "":
		return b.Message
	}
	return b.Error
}

// do performs one request. Transport failures become NetworkError and
// non-2xx responses become RemoteError carrying the server message.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "request_id", requestID, "err", err)
		return &apperr.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("request done", "op", op, "method", method, "path", path,
		"status", resp.StatusCode, "request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if len(data) > 0 && json.Unmarshal(data, &eb) != nil {
			if text := strings.TrimSpace(string(data)); len(text) <= maxPlainError {
				eb.Msg = text
			}
		}
		return &apperr.RemoteError{Op: op, Status: resp.StatusCode, Msg: eb.text()}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &apperr.RemoteError{Op: op, Status: resp.StatusCode, Msg: "empty response"}
		}
		return &apperr.RemoteError{Op: op, Status: resp.StatusCode, Msg: "malformed response: " + err.Error()}
	}
	return nil
}
