// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/feedcore/internal/models"
)

const (
	testSecret = "this_is_a_very_long_secret_key_with_32_plus_characters"
	testUser   = "11111111-1111-4111-8111-111111111111"
)

func signClaims(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestNewJWTManager(t *testing.T) {
	if _, err := NewJWTManager("", "", 0); err == nil {
		t.Error("NewJWTManager(\"\") expected error")
	}
	if m, err := NewJWTManager(testSecret, "", 0); err != nil || m == nil {
		t.Errorf("NewJWTManager() = %v, %v", m, err)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m, _ := NewJWTManager(testSecret, "feedcore-test", 0)
	user := models.MustUserID(testUser)

	token, err := m.GenerateToken(user, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	got, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got != user {
		t.Errorf("user = %s, want %s", got, user)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	m, _ := NewJWTManager(testSecret, "feedcore-test", 0)
	now := time.Now()
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   testUser,
			Issuer:    "feedcore-test",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"expired", func() string {
			c := valid()
			c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
			return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"no expiry", func() string {
			c := valid()
			c.ExpiresAt = nil
			return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"not yet valid", func() string {
			c := valid()
			c.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))
			return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"wrong secret", func() string {
			return signClaims(t, jwt.SigningMethodHS256, []byte(strings.Repeat("x", 40)), valid())
		}},
		{"wrong algorithm", func() string {
			return signClaims(t, jwt.SigningMethodHS512, []byte(testSecret), valid())
		}},
		{"none algorithm", func() string {
			return signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid())
		}},
		{"wrong issuer", func() string {
			c := valid()
			c.Issuer = "someone-else"
			return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"subject not a user id", func() string {
			c := valid()
			c.Subject = "alice"
			return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"garbage", func() string { return "not.a.token" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token()); err == nil {
				t.Error("ValidateToken() expected error")
			}
		})
	}
}

func TestValidateToken_MissingSubject(t *testing.T) {
	m, _ := NewJWTManager(testSecret, "", 0)
	token := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrMissingSubject) {
		t.Errorf("ValidateToken() error = %v, want ErrMissingSubject", err)
	}
}

func TestValidateToken_Leeway(t *testing.T) {
	m, _ := NewJWTManager(testSecret, "", time.Minute)
	token := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:   testUser,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-10 * time.Second)),
	})
	if _, err := m.ValidateToken(token); err != nil {
		t.Errorf("token expired within leeway rejected: %v", err)
	}
}
