// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package auth

import (
	"fmt"
	"net/http"
	"time"
)

// Mode selects where the user id comes from.
type Mode string

const (
	// ModeJWT verifies an HS256 bearer token.
	ModeJWT Mode = "jwt"
	// ModeHeader trusts a header set by an authenticating gateway.
	ModeHeader Mode = "header"
)

// ParseMode converts a config string to a Mode. Empty means ModeJWT.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeJWT:
		return ModeJWT, nil
	case ModeHeader:
		return ModeHeader, nil
	default:
		return "", fmt.Errorf("invalid auth mode %q: must be jwt or header", s)
	}
}

// MinSecretLength is the shortest accepted HS256 secret.
const MinSecretLength = 32

// Config configures user resolution.
type Config struct {
	Mode      string `koanf:"mode" validate:"omitempty,oneof=jwt header"`
	JWTSecret string `koanf:"jwt_secret"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `koanf:"issuer"`
	// Leeway tolerates clock skew on exp and nbf.
	Leeway     time.Duration `koanf:"leeway" validate:"min=0"`
	UserHeader string        `koanf:"user_header"`
}

// DefaultConfig returns JWT mode with no secret; one must be configured.
func DefaultConfig() Config {
	return Config{
		Mode:       string(ModeJWT),
		Leeway:     30 * time.Second,
		UserHeader: "X-User-ID",
	}
}

// Validate checks the settings the selected mode needs.
func (c *Config) Validate() error {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return err
	}
	switch mode {
	case ModeJWT:
		if len(c.JWTSecret) < MinSecretLength {
			return fmt.Errorf("auth.jwt_secret must be at least %d characters", MinSecretLength)
		}
	case ModeHeader:
		if http.CanonicalHeaderKey(c.UserHeader) == "" {
			return fmt.Errorf("auth.user_header is required in header mode")
		}
	}
	return nil
}
