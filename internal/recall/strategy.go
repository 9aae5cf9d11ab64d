// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package recall produces feed candidates.
//
// A Strategy proposes candidates from one source. The Layer runs the graph,
// trending and personalized strategies concurrently, isolates their failures and
// merges the results with first-occurrence dedup in a fixed source order.
package recall

import (
	"context"
	"math"

	"github.com/tomtom215/feedcore/internal/models"
)

// Strategy is a candidate producer.
type Strategy interface {
	Source() models.RecallSource
	// Recall returns up to limit candidates for user.
	Recall(ctx context.Context, user models.UserID, limit int) ([]models.Candidate, error)
}

// Weight bounds.
const (
	MinWeight = 0.1
	MaxWeight = 1.0
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RankWeight maps position i of n ranked items to a weight that falls linearly
// from MaxWeight at the head to MinWeight at the tail.
func RankWeight(i, n int) float64 {
	if n <= 1 {
		return MaxWeight
	}
	return clamp(MaxWeight-(MaxWeight-MinWeight)*float64(i)/float64(n-1), MinWeight, MaxWeight)
}
