package metadata

import "time"

/*
runSummary
  - Represents a terminal, derived summary of a completed run
  - Is computed by the pipeline after the last step
  - Is recorded exactly once
  - Must not influence control flow
*/
type runSummary struct {
	chart      string
	item       string
	videos     int
	artifact   string
	durationMs int64
}

type ArtifactKind string

const (
	ArtifactChart ArtifactKind = "chart"
	ArtifactCache ArtifactKind = "cache"
	ArtifactTable ArtifactKind = "table"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging and reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values have stable, package-agnostic semantics.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure

Meaning:
  - Failure caused by network transport or remote availability.

Examples:
  - TCP timeouts
  - DNS resolution failures
  - HTTP 5xx / 429

# CausePolicyDisallow

Meaning:
  - The remote side refused the request.

Examples:
  - HTTP 401 / 403 (bad or missing API key)
  - Quota exceeded

# CauseContentInvalid

Meaning:
  - Content was fetched but could not be processed meaningfully.

Examples:
  - Chart page without the expected ranking list
  - Malformed API JSON
  - Non-numeric statistics

# CauseStorageFailure

Meaning:
  - Failure while persisting or loading cache entries, rows or artifacts.

Examples:
  - Corrupt cache file
  - Redis unreachable
  - Disk full

# CauseInvariantViolation

Meaning:
  - A system-level invariant was violated.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type ErrorRecord struct {
	PackageName string
	Action      string
	Cause       ErrorCause
	ErrorString string
	ObservedAt  time.Time
	Attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrCacheKey   AttributeKey = "cache_key"
	AttrBackend    AttributeKey = "backend"
	AttrTerm       AttributeKey = "search_term"
	AttrWritePath  AttributeKey = "write_path"
)
