// Package backend is the shared HTTP layer for calls to the remote
// administration API. It owns per-service clients with timeouts and circuit
// breakers; callers classify response statuses themselves.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andeantech/ventas-bff/internal/config"
	"github.com/andeantech/ventas-bff/internal/observability"
	"github.com/andeantech/ventas-bff/model"
)

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 10 << 20

// Result is the outcome of a backend request that received an HTTP
// response, of any status.
type Result struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// DecodeJSON unmarshals the response body into v.
func (r Result) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("backend: empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

// service holds the HTTP client and circuit breaker for one backend service.
type service struct {
	cfg     config.ServiceConfig
	client  *http.Client
	breaker *CircuitBreaker
}

// Client issues requests against configured backend services.
type Client struct {
	services map[string]*service
}

// NewClient creates a Client with a dedicated HTTP client and circuit
// breaker per configured service.
func NewClient(services map[string]config.ServiceConfig) *Client {
	out := make(map[string]*service, len(services))
	for id, svcCfg := range services {
		timeout := svcCfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		transport := &http.Transport{
			MaxIdleConns:        100,
			MaxConnsPerHost:     50,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
		cb := svcCfg.CircuitBreaker
		out[id] = &service{
			cfg: svcCfg,
			client: &http.Client{
				Timeout:   timeout,
				Transport: transport,
			},
			breaker: NewCircuitBreaker(cb.FailureThreshold, cb.SuccessThreshold, cb.Timeout),
		}
	}
	return &Client{services: out}
}

// BreakerState returns the circuit breaker state for a service, for
// readiness reporting and metrics.
func (c *Client) BreakerState(serviceID string) (BreakerState, bool) {
	svc, ok := c.services[serviceID]
	if !ok {
		return BreakerClosed, false
	}
	return svc.breaker.State(), true
}

// Get issues a GET request against the service's path.
func (c *Client) Get(ctx context.Context, rctx *model.RequestContext, serviceID, path string) (Result, error) {
	return c.do(ctx, rctx, serviceID, http.MethodGet, path, nil)
}

// PostJSON issues a POST request with a JSON body. Exactly one request is
// performed; there is no retry at this layer.
func (c *Client) PostJSON(ctx context.Context, rctx *model.RequestContext, serviceID, path string, body any) (Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("backend: marshal body: %w", err)
	}
	return c.do(ctx, rctx, serviceID, http.MethodPost, path, payload)
}

func (c *Client) do(ctx context.Context, rctx *model.RequestContext, serviceID, method, path string, body []byte) (Result, error) {
	svc, ok := c.services[serviceID]
	if !ok {
		return Result{}, fmt.Errorf("backend: service %q not configured", serviceID)
	}

	if err := svc.breaker.Allow(); err != nil {
		return Result{}, model.NewBackendUnavailableError()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, svc.cfg.BaseURL+path, reader)
	if err != nil {
		return Result{}, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header = buildHeaders(rctx, method)
	observability.InjectTraceHeaders(ctx, req.Header)

	resp, err := svc.client.Do(req)
	if err != nil {
		svc.breaker.RecordFailure()
		if ctx.Err() != nil || isTimeoutError(err) {
			return Result{}, model.NewBackendTimeoutError()
		}
		if isConnectionError(err) {
			return Result{}, model.NewBackendUnavailableError()
		}
		return Result{}, fmt.Errorf("backend: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		svc.breaker.RecordFailure()
		return Result{}, fmt.Errorf("backend: read response: %w", err)
	}

	// 4xx responses are the caller's fault, not an infrastructure failure;
	// only 5xx count against the breaker.
	if resp.StatusCode >= 500 {
		svc.breaker.RecordFailure()
	} else if resp.StatusCode < 400 {
		svc.breaker.RecordSuccess()
	}

	return Result{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Header:     resp.Header,
	}, nil
}

func buildHeaders(rctx *model.RequestContext, method string) http.Header {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		h.Set("Content-Type", "application/json")
	}
	if rctx != nil {
		if rctx.Token != "" {
			h.Set("Authorization", "Bearer "+sanitizeHeader(rctx.Token))
		}
		h.Set("X-Correlation-Id", sanitizeHeader(rctx.CorrelationID))
		h.Set("X-Request-Subject", sanitizeHeader(rctx.SubjectID))
	}
	return h
}

// sanitizeHeader strips newlines and carriage returns to prevent header
// injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "no such host")
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
