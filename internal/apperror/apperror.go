// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package apperror defines the error taxonomy used across feedcore.
//
// Only KindBadRequest and KindUnauthenticated ever reach an HTTP client. Every other
// kind is absorbed inside the core: cache errors degrade to misses, recall and
// downstream errors degrade to empty results, codec errors trigger eviction.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthenticated
	KindCache
	KindRecall
	KindDownstream
	KindCodec
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindCache:
		return "cache"
	case KindRecall:
		return "recall"
	case KindDownstream:
		return "downstream"
	case KindCodec:
		return "codec"
	default:
		return "internal"
	}
}

// Code is the machine-readable code used in HTTP error bodies.
func (k Kind) Code() string {
	switch k {
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus maps a kind to a response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Op names the failing operation ("kv.get",
// "graph.get_following") and Err is the wrapped cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, apperror.ErrCache) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks by kind.
var (
	ErrBadRequest      = &Error{Kind: KindBadRequest}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrCache           = &Error{Kind: KindCache}
	ErrRecall          = &Error{Kind: KindRecall}
	ErrDownstream      = &Error{Kind: KindDownstream}
	ErrCodec           = &Error{Kind: KindCodec}
	ErrInternal        = &Error{Kind: KindInternal}
)

// New builds a classified error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// BadRequest builds a user-visible validation error.
func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated builds a missing/invalid credentials error.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// UserVisible reports whether err may be shown to the client as-is.
func UserVisible(err error) bool {
	switch KindOf(err) {
	case KindBadRequest, KindUnauthenticated:
		return true
	default:
		return false
	}
}
