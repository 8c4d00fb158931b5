package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseInvalidEndpoint       FetchErrorCause = "invalid endpoint"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseRedirectLimitExceeded FetchErrorCause = "reached redirect limit"
	ErrCauseRequestForbidden      FetchErrorCause = "forbidden"
	ErrCauseRequestClientError    FetchErrorCause = "4xx"
	ErrCauseRequestTooMany        FetchErrorCause = "too many requests"
	ErrCauseRequest5xx            FetchErrorCause = "5xx"
	ErrCauseCancelled             FetchErrorCause = "cancelled"
)

// FetchError reports that a live request for Endpoint could not produce a
// body. It is never cached.
type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s: %s", e.Cause, e.Endpoint, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics to the
// canonical metadata.ErrorCause table. Observational only.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNetworkFailure, ErrCauseRequest5xx, ErrCauseReadResponseBodyError, ErrCauseCancelled:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestTooMany, ErrCauseRequestForbidden:
		return metadata.CausePolicyDisallow
	case ErrCauseRequestClientError, ErrCauseRedirectLimitExceeded:
		return metadata.CauseContentInvalid
	case ErrCauseInvalidEndpoint:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
