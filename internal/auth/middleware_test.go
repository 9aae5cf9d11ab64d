// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcore/internal/models"
)

func echoUser(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Error("handler ran without a user in context")
		}
		_, _ = w.Write([]byte(user.String()))
	})
}

func jwtConfig() Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = testSecret
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"jwt with secret", func(c *Config) { c.JWTSecret = testSecret }, false},
		{"jwt without secret", func(c *Config) {}, true},
		{"jwt short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"header mode", func(c *Config) { c.Mode = "header" }, false},
		{"header mode without header", func(c *Config) { c.Mode = "header"; c.UserHeader = "" }, true},
		{"empty mode is jwt", func(c *Config) { c.Mode = ""; c.JWTSecret = testSecret }, false},
		{"unknown mode", func(c *Config) { c.Mode = "basic" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticate_JWT(t *testing.T) {
	mw, err := NewMiddleware(jwtConfig())
	if err != nil {
		t.Fatalf("NewMiddleware: %v", err)
	}
	token, err := mw.jwt.GenerateToken(models.MustUserID(testUser), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	handler := mw.Authenticate(echoUser(t))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + token, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "missing bearer token"},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "invalid authorization header"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "invalid authorization header"},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized, "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if rec.Body.String() != testUser {
					t.Errorf("user = %q", rec.Body.String())
				}
				return
			}
			var body models.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error.Code != "UNAUTHENTICATED" || body.Error.Message != tt.wantMsg {
				t.Errorf("error = %+v, want UNAUTHENTICATED %q", body.Error, tt.wantMsg)
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestAuthenticate_Header(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "header"
	mw, err := NewMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewMiddleware: %v", err)
	}
	if mw.Mode() != ModeHeader {
		t.Fatalf("Mode() = %s", mw.Mode())
	}
	handler := mw.Authenticate(echoUser(t))

	tests := []struct {
		name       string
		value      string
		wantStatus int
	}{
		{"valid", testUser, http.StatusOK},
		{"padded", "  " + testUser + " ", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not a uuid", "alice", http.StatusUnauthorized},
		{"nil uuid", "00000000-0000-0000-0000-000000000000", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed", nil)
			if tt.value != "" {
				req.Header.Set("x-user-id", tt.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, strings.TrimSpace(rec.Body.String()))
			}
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserFromContext(req.Context()); ok {
		t.Error("UserFromContext on a bare context should report false")
	}
	ctx := ContextWithUser(req.Context(), models.NilUserID)
	if _, ok := UserFromContext(ctx); ok {
		t.Error("nil user should not count as authenticated")
	}
}
