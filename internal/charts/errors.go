package charts

import (
	"fmt"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseParseFailure    ExtractionErrorCause = "html parse failure"
	ErrCauseNoChartPanel    ExtractionErrorCause = "no chart panel"
	ErrCauseNoRankingList   ExtractionErrorCause = "no ranking list"
	ErrCauseMissingField    ExtractionErrorCause = "missing field"
	ErrCauseInvalidChartURL ExtractionErrorCause = "invalid chart url"
)

// ExtractionError reports that a fetched page lacks the expected structure.
type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
	Field     string
}

func (e *ExtractionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("extraction error: %s %q: %s", e.Cause, e.Field, e.Message)
	}
	return fmt.Sprintf("extraction error: %s: %s", e.Cause, e.Message)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseParseFailure, ErrCauseNoChartPanel, ErrCauseNoRankingList, ErrCauseMissingField, ErrCauseInvalidChartURL:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
