package metadata

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

/*
Recorder captures structured run events and writes them to a zap logger.
It must not:
- perform I/O decisions
- affect control flow
Every event carries the run id so a single invocation can be traced
through the log output.

Metadata is write-only.
No component may read metadata to influence run decisions.
*/
type Recorder struct {
	runID  string
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	return &Recorder{
		runID:  runID,
		logger: logger.With(zap.String("run_id", runID)),
	}
}

func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	fields := []zap.Field{
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.Stringer("cause", cause),
		zap.String("error", errorString),
	}
	r.logger.Warn("error recorded", append(fields, attrFields(attrs)...)...)
}

func (r *Recorder) RecordFetch(
	fetchURL string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
	r.logger.Info("fetch",
		zap.String("url", fetchURL),
		zap.Int("http_status", httpStatus),
		zap.Duration("duration", duration),
		zap.String("content_type", contentType),
		zap.Int("retry_count", retryCount),
	)
}

func (r *Recorder) RecordCacheLookup(key string, hit bool) {
	msg := "cache miss"
	if hit {
		msg = "cache hit"
	}
	r.logger.Info(msg, zap.String(string(AttrCacheKey), key))
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("path", path),
	}
	r.logger.Info("artifact written", append(fields, attrFields(attrs)...)...)
}

/*
RecordRunSummary records a terminal, derived summary of a completed run.

Contract:
  - MUST be called at most once per run, after the last step.
  - Recorded values MUST NOT influence control flow.
*/
func (r *Recorder) RecordRunSummary(
	chart string,
	item string,
	videos int,
	artifact string,
	duration time.Duration,
) {
	summary := runSummary{
		chart:      chart,
		item:       item,
		videos:     videos,
		artifact:   artifact,
		durationMs: duration.Milliseconds(),
	}
	r.logger.Info("run finished",
		zap.String("chart", summary.chart),
		zap.String("item", summary.item),
		zap.Int("videos", summary.videos),
		zap.String("artifact", summary.artifact),
		zap.Int64("duration_ms", summary.durationMs),
	)
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, a := range attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value))
	}
	return fields
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchURL string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
	)
	RecordCacheLookup(key string, hit bool)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type RunFinalizer interface {
	RecordRunSummary(
		chart string,
		item string,
		videos int,
		artifact string,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink and RunFinalizer but does nothing.
// Callers (or tests) decide whether to inject a Recorder or a NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchURL string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (n *NoopSink) RecordCacheLookup(key string, hit bool) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordRunSummary(chart string, item string, videos int, artifact string, duration time.Duration) {
}
