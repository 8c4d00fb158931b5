package youtube

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/failure"
)

var ErrMissingAPIKey = errors.New("youtube api key is required")

type ExtractionErrorCause string

const (
	ErrCauseMalformedJSON    ExtractionErrorCause = "malformed json"
	ErrCauseNoItems          ExtractionErrorCause = "no items"
	ErrCauseMissingVideoID   ExtractionErrorCause = "missing video id"
	ErrCauseInvalidStatistic ExtractionErrorCause = "invalid statistic"
)

// ExtractionError reports an API response that could not be decoded into
// videos or statistics.
type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
	Field     string
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("youtube extraction error: %s %q: %s", e.Cause, e.Field, e.Message)
	}
	return fmt.Sprintf("youtube extraction error: %s: %s", e.Cause, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseMalformedJSON, ErrCauseNoItems, ErrCauseMissingVideoID, ErrCauseInvalidStatistic:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
