// Package upstream holds the JSON-over-HTTP clients for the auth service
// and the recipe service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/recipebook/internal/platform/auth"
	"github.com/example/recipebook/internal/platform/httpserver"
	"github.com/example/recipebook/internal/platform/metrics"
)

const maxResponseBytes = 4 << 20

type Options struct {
	// Name labels logs, metrics and the circuit breaker, e.g. "auth".
	Name    string
	BaseURL string
	Timeout time.Duration

	HTTPClient *http.Client
	Metrics    *metrics.Collector
	Logger     *zap.Logger

	// Breaker overrides the default breaker tuning. Name and IsSuccessful
	// are always set by the client.
	Breaker *gobreaker.Settings
}

// Client is the shared core of every backend client.
type Client struct {
	name    string
	base    string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Collector
	log     *zap.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("upstream", opts.Name))

	st := defaultBreakerSettings()
	if opts.Breaker != nil {
		st = *opts.Breaker
	}
	st.Name = opts.Name
	st.IsSuccessful = isSuccessful
	if st.OnStateChange == nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", zap.String("from", from.String()), zap.String("to", to.String()))
		}
	}

	return &Client{
		name:    opts.Name,
		base:    opts.BaseURL,
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		breaker: gobreaker.NewCircuitBreaker(st),
		metrics: opts.Metrics,
		log:     log,
	}
}

func defaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.ConsecutiveFailures >= 5 {
				return true
			}
			return c.Requests >= 10 && float64(c.TotalFailures)/float64(c.Requests) >= 0.6
		},
	}
}

// isSuccessful decides what the breaker counts against the upstream.
// Client errors and callers going away are not the upstream's fault.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status < http.StatusInternalServerError
	}
	return false
}

func (c *Client) Name() string { return c.name }

// State reports the breaker state, for readiness checks.
func (c *Client) State() gobreaker.State { return c.breaker.State() }

// Do sends one request. body, when not nil, is encoded as JSON. out, when
// not nil, receives the decoded 2xx body; an empty or null body leaves it
// untouched. op names the call in metrics.
func (c *Client) Do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	start := time.Now()
	var payload []byte
	_, err = c.breaker.Execute(func() (any, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		payload, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Upstream: c.name, Status: resp.StatusCode, Message: parseErrorMessage(payload)}
		}
		return nil, nil
	})
	c.metrics.ObserveUpstream(c.name, op, statusLabel(err), time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s: %w", c.name, ErrUnavailable)
		}
		var se *StatusError
		if errors.As(err, &se) {
			if se.Status >= http.StatusInternalServerError {
				c.log.Warn("upstream failed", zap.String("op", op), zap.Int("status", se.Status),
					zap.String("request_id", httpserver.RequestIDFromContext(ctx)))
			}
			return se
		}
		return fmt.Errorf("%s %s: %w", c.name, op, err)
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", c.name, op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, ok := auth.TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if rid := httpserver.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set(httpserver.RequestIDHeader, rid)
	}
	return req, nil
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "open"
	}
	var se *StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Status)
	}
	return "error"
}

func pathf(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
