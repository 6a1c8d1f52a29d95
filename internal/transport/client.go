// Package transport implements the REST client for the ledgerdesk
// backend: JSON requests with session-cookie credentials, mapping of
// error responses into the ledger error taxonomy, and delivery of
// unauthorized-session signals to the session gate.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/ledgerdesk/ledgerdesk/internal/metrics"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

// SessionEvents is the sink the client reports authentication failures
// to. It is passed in at construction so there is no registration
// ordering hazard between the gate and early requests.
//
// Epoch is sampled when a request is issued; a 401 reports that epoch
// back, which lets the gate ignore signals from requests that were in
// flight across a logout/login transition.
type SessionEvents interface {
	Epoch() uint64
	NotifyUnauthorized(epoch uint64)
}

// noopEvents is used when no sink is configured.
type noopEvents struct{}

func (noopEvents) Epoch() uint64             { return 0 }
func (noopEvents) NotifyUnauthorized(uint64) {}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://ledger.example.com/api/v1".
	BaseURL string
	// Sink receives unauthorized-session signals. Optional.
	Sink SessionEvents
	// HTTPClient carries the session cookie jar. Defaults to a client
	// with a 30s timeout and no jar.
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Collector
	Tracer     trace.Tracer
}

// Client issues JSON requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sink       SessionEvents
	logger     *zap.Logger
	metrics    *metrics.Collector
	tracer     trace.Tracer
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	sink := cfg.Sink
	if sink == nil {
		sink = noopEvents{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("transport")
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		sink:       sink,
		logger:     logger,
		metrics:    cfg.Metrics,
		tracer:     tracer,
	}, nil
}

// BaseURL returns the configured API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE. The backend answers 204 with no body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("ledgerdesk.%s", method),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		))
	defer span.End()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	span.SetAttributes(attribute.String("request.id", requestID))

	// The epoch is captured before the request leaves so a 401 that
	// resolves after a re-login reports the session it actually failed
	// against.
	epoch := c.sink.Epoch()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "canceled")
			return ctx.Err()
		}
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return &ledger.FetchError{Message: err.Error()}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		c.metrics.ObserveUnauthorized()
		c.sink.NotifyUnauthorized(epoch)
		span.SetStatus(codes.Error, "unauthorized")
		return ledger.ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readServerMessage(resp.Body)
		span.SetStatus(codes.Error, msg)
		c.logger.Debug("server rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", requestID))
		return &ledger.FetchError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// readServerMessage extracts a human-readable error message from an
// error response body. The backend uses either {"error": "..."} or
// {"detail": "..."}; anything else is passed through as raw text.
func readServerMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}

	var envelope struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Detail != "" {
			return envelope.Detail
		}
	}

	// Field-level validation errors arrive as {"field": ["msg", ...]}.
	var fields map[string][]string
	if err := json.Unmarshal(data, &fields); err == nil && len(fields) > 0 {
		var parts []string
		for field, msgs := range fields {
			parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, ", ")))
		}
		return strings.Join(parts, "; ")
	}

	return strings.TrimSpace(string(data))
}
