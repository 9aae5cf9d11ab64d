// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestParseUserID(t *testing.T) {
	t.Parallel()

	id, err := ParseUserID("8F14E45F-CEEA-467A-9575-AE2B1E1B1C11")
	if err != nil {
		t.Fatalf("ParseUserID error: %v", err)
	}
	if got := id.String(); got != "8f14e45f-ceea-467a-9575-ae2b1e1b1c11" {
		t.Errorf("String() = %q, want canonical lowercase form", got)
	}
	if id.IsZero() {
		t.Error("parsed id should not be zero")
	}

	if _, err := ParseUserID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestFeedPageJSON(t *testing.T) {
	t.Parallel()

	p := MustPostID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	cursor := "MjA="
	page := FeedPage{Posts: []PostID{p}, Cursor: &cursor, TotalCount: 1}

	data, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"posts":["6ba7b810-9dad-11d1-80b4-00c04fd430c8"],"cursor":"MjA=","has_more":false,"total_count":1}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back FeedPage
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(back.Posts) != 1 || back.Posts[0] != p {
		t.Errorf("round trip posts = %v, want [%v]", back.Posts, p)
	}
}

func TestEmptyPageJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(EmptyPage())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(data), `"posts":[]`) || !strings.Contains(string(data), `"cursor":null`) {
		t.Errorf("unexpected empty page encoding: %s", data)
	}
}

func TestRecallSourceString(t *testing.T) {
	t.Parallel()

	tests := map[RecallSource]string{
		SourceGraph:        "graph",
		SourceTrending:     "trending",
		SourcePersonalized: "personalized",
		RecallSource(9):    "unknown",
	}
	for src, want := range tests {
		if got := src.String(); got != want {
			t.Errorf("RecallSource(%d).String() = %q, want %q", src, got, want)
		}
	}
}
