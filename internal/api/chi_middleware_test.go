// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/feedcore/internal/auth"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/models"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func limitedRouter(cfg *ChiMiddlewareConfig) http.Handler {
	mw := NewChiMiddleware(cfg)
	r := chi.NewRouter()
	r.With(mw.RateLimit()).Get("/limited", okHandler)
	return r
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	router := limitedRouter(cfg)

	before := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("/limited"))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("192.0.2.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, code)
		}
	}
	if code := send("192.0.2.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", code)
	}
	if code := send("192.0.2.2:1234"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}

	after := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("/limited"))
	if after-before != 1 {
		t.Errorf("rate limit hits delta = %v, want 1", after-before)
	}
}

func TestRateLimit_Body(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 1
	router := limitedRouter(cfg)

	var rr *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
	}

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Code != ErrCodeTooManyRequests {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeTooManyRequests)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	for _, cfg := range []*ChiMiddlewareConfig{
		{RateLimitDisabled: true, RateLimitRequests: 1, RateLimitWindow: time.Minute},
		{RateLimitRequests: 0, RateLimitWindow: time.Minute},
	} {
		router := limitedRouter(cfg)
		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/limited", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != http.StatusOK {
				t.Fatalf("request %d status = %d, want 200", i+1, rr.Code)
			}
		}
	}
}

func TestKeyByUserOrIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"

	key, err := KeyByUserOrIP(req)
	if err != nil {
		t.Fatalf("KeyByUserOrIP: %v", err)
	}
	if key != "ip:203.0.113.9" {
		t.Errorf("anonymous key = %q, want ip:203.0.113.9", key)
	}

	user := models.MustUserID("22222222-2222-4222-8222-222222222222")
	req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	key, err = KeyByUserOrIP(req)
	if err != nil {
		t.Fatalf("KeyByUserOrIP: %v", err)
	}
	if key != "user:"+user.String() {
		t.Errorf("user key = %q, want user:%s", key, user)
	}
}

func TestCORS_Preflight(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	handler := NewChiMiddleware(cfg).CORS()(http.HandlerFunc(okHandler))

	tests := []struct {
		origin    string
		wantAllow string
	}{
		{origin: "https://app.example.com", wantAllow: "https://app.example.com"},
		{origin: "https://evil.example.com", wantAllow: ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/feed", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	handler := APISecurityHeaders()(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS set on plain HTTP: %q", got)
	}

	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("HSTS missing behind TLS proxy")
	}
}
