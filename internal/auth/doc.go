// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package auth resolves the calling user for feed requests.

Feedcore does not issue sessions. It trusts one of two sources for the user id:

 1. JWT mode (default): an HS256 bearer token in the Authorization header. The
    token's "sub" claim must be a user id. Expiry and not-before are enforced
    with a small leeway.

 2. Header mode: a gateway that has already authenticated the caller forwards
    the user id in a trusted header (X-User-ID by default). Only use this when
    the service is unreachable except through that gateway.

A missing or invalid credential is answered with 401 and the standard error
body; the handler never runs.

Usage:

	mw, err := auth.NewMiddleware(cfg.Auth)
	if err != nil {
	    return err
	}
	r.With(mw.Authenticate).Get("/feed", handler.GetFeed)

	// in the handler
	user, ok := auth.UserFromContext(r.Context())
*/
package auth
