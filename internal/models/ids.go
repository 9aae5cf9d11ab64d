// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package models

import (
	"fmt"

	"github.com/google/uuid"
)

// UserID identifies a user. It is a 128-bit value with a canonical lowercase
// hyphenated string form, so it is comparable, hashable and sorts stably as text.
type UserID uuid.UUID

// AuthorID is a UserID in the role of a post author.
type AuthorID = UserID

// PostID identifies a post.
type PostID uuid.UUID

// NilUserID is the zero user id; it never identifies a real user.
var NilUserID UserID

// ParseUserID parses the canonical string form.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilUserID, fmt.Errorf("parse user id %q: %w", s, err)
	}
	return UserID(u), nil
}

// MustUserID is ParseUserID for constants in tests and fixtures.
func MustUserID(s string) UserID {
	id, err := ParseUserID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id UserID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether id is the nil id.
func (id UserID) IsZero() bool { return id == NilUserID }

// MarshalText implements encoding.TextMarshaler.
func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *UserID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

// ParsePostID parses the canonical string form.
func ParsePostID(s string) (PostID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PostID{}, fmt.Errorf("parse post id %q: %w", s, err)
	}
	return PostID(u), nil
}

// MustPostID is ParsePostID for constants in tests and fixtures.
func MustPostID(s string) PostID {
	id, err := ParsePostID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id PostID) String() string { return uuid.UUID(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id PostID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PostID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = PostID(u)
	return nil
}

// PostIDStrings renders ids in their canonical form, preserving order.
func PostIDStrings(ids []PostID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// UserIDStrings renders ids in their canonical form, preserving order.
func UserIDStrings(ids []UserID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
