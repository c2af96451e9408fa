package domain

import (
	"errors"
	"fmt"
)

// Gateway failures. Adapters wrap these with %w so callers can match on them.
var (
	ErrConfig        = errors.New("llm: no credential configured")
	ErrAuth          = errors.New("llm: upstream rejected credentials")
	ErrUpstream      = errors.New("llm: upstream request failed")
	ErrEmptyResponse = errors.New("llm: upstream reply has no text")
)

// ErrReportUnavailable is the only failure the report service hands out.
var ErrReportUnavailable = errors.New("report unavailable")

// ExtractionError means no JSON document could be recovered from the reply.
type ExtractionError struct {
	Cleaned string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no JSON found in model reply (%d chars after cleanup)", len(e.Cleaned))
}

// ValidationError means JSON was recovered but does not fit the report shape.
type ValidationError struct {
	Kind    ReportKind
	Reason  string
	Payload any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s payload invalid: %s", e.Kind, e.Reason)
}

// Stage labels where in the pipeline err originated.
func Stage(err error) string {
	var (
		ee *ExtractionError
		ve *ValidationError
	)
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.As(err, &ee):
		return "extract"
	case errors.As(err, &ve):
		return "validate"
	default:
		return "unknown"
	}
}
