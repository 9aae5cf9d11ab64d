// Feedcore - Personalized Feed Assembly Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package eventprocessor

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/logging"
)

func TestWatermillLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWatermillLoggerFrom(logging.NewTestLogger(&buf).Level(zerolog.TraceLevel))

	logger.Info("router started", watermill.LogFields{"handlers": 3})
	logger.Error("publish failed", errors.New("broken pipe"), watermill.LogFields{"topic": TopicPosts})
	logger.With(watermill.LogFields{"handler_name": "invalidate"}).Debug("message received", nil)
	logger.Trace("ack", nil)

	out := buf.String()
	for _, want := range []string{
		`"message":"router started"`,
		`"handlers":3`,
		`"error":"broken pipe"`,
		`"topic":"` + TopicPosts + `"`,
		`"handler_name":"invalidate"`,
		`"level":"trace"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestWatermillLogger_ImplementsAdapter(t *testing.T) {
	var _ watermill.LoggerAdapter = NewWatermillLogger("test")
}
