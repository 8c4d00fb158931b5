package videodb

import (
	"fmt"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseOpenFailed  StoreErrorCause = "open failed"
	ErrCauseWriteFailed StoreErrorCause = "write failed"
	ErrCauseReadFailed  StoreErrorCause = "read failed"
)

type StoreError struct {
	Message   string
	Retryable bool
	Cause     StoreErrorCause
	Term      string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Term == "" {
		return fmt.Sprintf("videodb error: %s: %s", e.Cause, e.Message)
	}
	return fmt.Sprintf("videodb error: %s for %q: %s", e.Cause, e.Term, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapStoreErrorToMetadataCause(err *StoreError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseOpenFailed, ErrCauseWriteFailed, ErrCauseReadFailed:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
