// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package assembler

import (
	"encoding/base64"
	"strconv"

	"github.com/tomtom215/feedcore/internal/apperror"
)

// maxCursorDigits bounds the decoded offset so it always fits in an int.
const maxCursorDigits = 9

// EncodeCursor returns the opaque cursor for offset: base64 of its decimal form.
func EncodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor parses a cursor produced by EncodeCursor. It rejects the empty
// string, invalid base64, signs and any non-digit character.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, apperror.BadRequest("cursor must not be empty")
	}
	raw, err := base64.StdEncoding.Strict().DecodeString(cursor)
	if err != nil {
		return 0, apperror.BadRequest("cursor is not valid base64")
	}
	if len(raw) == 0 || len(raw) > maxCursorDigits {
		return 0, apperror.BadRequest("cursor is out of range")
	}
	for _, b := range raw {
		if b < '0' || b > '9' {
			return 0, apperror.BadRequest("cursor must encode a non-negative integer")
		}
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, apperror.BadRequest("cursor must encode a non-negative integer")
	}
	return offset, nil
}
