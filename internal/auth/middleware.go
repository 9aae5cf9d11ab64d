// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedcore/internal/apperror"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/models"
)

type contextKey string

const userContextKey contextKey = "auth_user"

// ContextWithUser stores the authenticated user.
func ContextWithUser(ctx context.Context, user models.UserID) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user set by Authenticate.
func UserFromContext(ctx context.Context) (models.UserID, bool) {
	user, ok := ctx.Value(userContextKey).(models.UserID)
	return user, ok && !user.IsZero()
}

// Middleware authenticates requests according to Config.
type Middleware struct {
	mode   Mode
	jwt    *JWTManager
	header string
}

// NewMiddleware builds the middleware for cfg.Mode.
func NewMiddleware(cfg Config) (*Middleware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := ParseMode(cfg.Mode)
	m := &Middleware{mode: mode, header: http.CanonicalHeaderKey(cfg.UserHeader)}
	if mode == ModeJWT {
		jm, err := NewJWTManager(cfg.JWTSecret, cfg.Issuer, cfg.Leeway)
		if err != nil {
			return nil, err
		}
		m.jwt = jm
	}
	return m, nil
}

// Mode returns the active mode.
func (m *Middleware) Mode() Mode { return m.mode }

// Authenticate resolves the user and stores it in the request context, or answers
// 401 without calling next.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			metrics.AuthFailures.WithLabelValues(string(m.mode)).Inc()
			logging.Ctx(r.Context()).Debug().Err(err).Str("mode", string(m.mode)).Msg("Authentication failed")
			writeUnauthenticated(w, err)
			return
		}
		ctx := ContextWithUser(r.Context(), user)
		ctx = logging.ContextWithUserID(ctx, user.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) resolve(r *http.Request) (models.UserID, error) {
	var raw string
	switch m.mode {
	case ModeHeader:
		raw = strings.TrimSpace(r.Header.Get(m.header))
		if raw == "" {
			return models.NilUserID, apperror.Unauthenticated("missing " + m.header + " header")
		}
	default:
		token, err := bearerToken(r)
		if err != nil {
			return models.NilUserID, err
		}
		user, err := m.jwt.ValidateToken(token)
		if err != nil {
			return models.NilUserID, apperror.Wrap(apperror.KindUnauthenticated, "auth.jwt", err)
		}
		return checkUser(user)
	}

	user, err := models.ParseUserID(raw)
	if err != nil {
		return models.NilUserID, apperror.Unauthenticated("invalid user id")
	}
	return checkUser(user)
}

func checkUser(user models.UserID) (models.UserID, error) {
	if user.IsZero() {
		return models.NilUserID, apperror.Unauthenticated("invalid user id")
	}
	return user, nil
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", apperror.Unauthenticated("missing bearer token")
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperror.Unauthenticated("invalid authorization header")
	}
	return strings.TrimSpace(token), nil
}

// writeUnauthenticated never echoes token parse errors to the client.
func writeUnauthenticated(w http.ResponseWriter, err error) {
	msg := "invalid token"
	var ae *apperror.Error
	if errors.As(err, &ae) && ae.Err == nil && ae.Message != "" {
		msg = ae.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="feedcore"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: models.APIError{
		Code:    apperror.KindUnauthenticated.Code(),
		Message: msg,
	}})
}
