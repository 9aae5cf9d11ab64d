// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordKVOp(t *testing.T) {
	beforeTrips := testutil.ToFloat64(KVRoundTrips.WithLabelValues("test_get"))
	beforeErrs := testutil.ToFloat64(KVErrors.WithLabelValues("test_get"))

	RecordKVOp("test_get", time.Millisecond, nil)
	RecordKVOp("test_get", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(KVRoundTrips.WithLabelValues("test_get")) - beforeTrips; got != 2 {
		t.Errorf("round trips delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(KVErrors.WithLabelValues("test_get")) - beforeErrs; got != 1 {
		t.Errorf("errors delta = %v, want 1", got)
	}
}

func TestRecordRecall(t *testing.T) {
	before := testutil.ToFloat64(RecallStrategyFailures.WithLabelValues("test_source"))

	RecordRecall("test_source", 10, time.Millisecond, nil)
	RecordRecall("test_source", 0, time.Millisecond, errors.New("down"))

	if got := testutil.ToFloat64(RecallStrategyFailures.WithLabelValues("test_source")) - before; got != 1 {
		t.Errorf("failures delta = %v, want 1", got)
	}
}

func TestRecordDownstream(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		rejected bool
		result   string
	}{
		{"success", nil, false, "success"},
		{"failure", errors.New("503"), false, "failure"},
		{"rejected", errors.New("open"), true, "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DownstreamRequests.WithLabelValues("test_svc", tt.result)
			before := testutil.ToFloat64(c)
			RecordDownstream("test_svc", time.Millisecond, tt.err, tt.rejected)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("%s delta = %v, want 1", tt.result, got)
			}
		})
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestRecordWarm(t *testing.T) {
	before := testutil.ToFloat64(WarmerUsers.WithLabelValues("warmed"))
	RecordWarm("warmed")
	if got := testutil.ToFloat64(WarmerUsers.WithLabelValues("warmed")) - before; got != 1 {
		t.Errorf("warmed delta = %v, want 1", got)
	}
}
