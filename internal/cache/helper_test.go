package cache_test

import (
	"time"

	"github.com/rohmanhakim/chartstats/internal/metadata"
)

// recordingSink captures error events emitted by the stores.
type recordingSink struct {
	metadata.NoopSink
	errors []errorEvent
}

type errorEvent struct {
	action string
	cause  metadata.ErrorCause
	attrs  []metadata.Attribute
}

func (s *recordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	s.errors = append(s.errors, errorEvent{action: action, cause: cause, attrs: attrs})
}
