// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package downstream holds the typed clients for the services the feed core
// consumes (graph, content, ranking), the read-through relationship cache and the
// request-scoped partial-failure tally.
//
// Every call runs under its own timeout and behind a per-service circuit breaker.
// Failures are returned as apperror.KindDownstream errors; use IsRejected to tell
// an open breaker from a failed call.
package downstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// ServiceConfig configures one downstream HTTP service.
type ServiceConfig struct {
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout"`
	Breaker BreakerConfig `koanf:"breaker"`
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// httpService is the shared plumbing of the JSON-over-HTTP clients.
type httpService struct {
	name    string
	baseURL string
	timeout time.Duration
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func newHTTPService(name string, cfg ServiceConfig, client *http.Client) *httpService {
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &httpService{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		client:  client,
		cb:      newBreaker(name, cfg.Breaker),
	}
}

// do executes one request through the breaker and returns the raw response body.
func (s *httpService) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	body, err := s.cb.Execute(func() ([]byte, error) {
		return s.roundTrip(ctx, method, path, query, payload)
	})
	rejected := IsRejected(err)
	metrics.RecordDownstream(s.name, time.Since(start), err, rejected)

	if err != nil {
		if !rejected {
			counts := s.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, apperror.Wrap(apperror.KindDownstream, s.name+"."+op, err)
	}
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.name).Set(0)
	return body, nil
}

func (s *httpService) roundTrip(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	reqURL := s.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 200)}
	}
	return data, nil
}

// decode parses a JSON response body.
func decode[T any](service, op string, data []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperror.Wrap(apperror.KindDownstream, service+"."+op, fmt.Errorf("failed to decode response: %w", err))
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
