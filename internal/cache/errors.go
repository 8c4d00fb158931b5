package cache

import (
	"fmt"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/failure"
)

type CacheErrorCause string

const (
	ErrCauseUnavailable CacheErrorCause = "unavailable"
	ErrCauseWriteFailed CacheErrorCause = "write failed"
)

type CacheError struct {
	Message   string
	Retryable bool
	Cause     CacheErrorCause
	Err       error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s, %s", e.Cause, e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// Cache failures never abort a run.
func (e *CacheError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func mapCacheErrorToMetadataCause(err *CacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseUnavailable, ErrCauseWriteFailed:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
