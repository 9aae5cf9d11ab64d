// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import "errors"

var (
	// ErrNilFeedCache is returned when the invalidation handler has no feed cache.
	ErrNilFeedCache = errors.New("feed cache required")

	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher closed")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ProcessingError is a failed invalidation. Permanent failures (payloads that
// can never be handled) skip the retry middleware and go to the poison topic.
// Everything else is a KV or graph outage: retried, then nacked for redelivery.
type ProcessingError struct {
	Op        string
	Permanent bool
	Err       error
}

func (e *ProcessingError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// NewRetryableError marks a transient failure of op.
func NewRetryableError(op string, err error) error {
	return &ProcessingError{Op: op, Err: err}
}

// NewPermanentError marks a message that will never succeed.
func NewPermanentError(op string, err error) error {
	return &ProcessingError{Op: op, Permanent: true, Err: err}
}

// IsRetryableError reports whether err carries a transient ProcessingError.
func IsRetryableError(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe) && !pe.Permanent
}

// IsPermanentError reports whether err carries a permanent ProcessingError.
func IsPermanentError(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe) && pe.Permanent
}
