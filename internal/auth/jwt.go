// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/feedcore/internal/models"
)

// ErrMissingSubject is returned for a valid token without a sub claim.
var ErrMissingSubject = errors.New("token has no subject")

// JWTManager verifies bearer tokens. GenerateToken exists for tests and tooling;
// production tokens are issued elsewhere.
type JWTManager struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewJWTManager creates a verifier for HS256 tokens signed with secret.
func NewJWTManager(secret, issuer string, leeway time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required but was empty")
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, leeway: leeway}, nil
}

// GenerateToken signs a token for user valid for ttl.
func (m *JWTManager) GenerateToken(user models.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.String(),
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, algorithm, time claims and issuer, and returns
// the user named by sub.
func (m *JWTManager) ValidateToken(tokenString string) (models.UserID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.leeway),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return models.UserID{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.Subject == "" {
		return models.UserID{}, ErrMissingSubject
	}
	user, err := models.ParseUserID(claims.Subject)
	if err != nil {
		return models.UserID{}, fmt.Errorf("invalid token subject: %w", err)
	}
	return user, nil
}
