package diagnosis

import (
	"errors"
	"fmt"
	"net/http"

	"diagnosis-agent/internal/agent"
)

// Kind classifies operational failures of the pipeline.
type Kind int

const (
	KindInputValidation Kind = iota + 1
	KindMalformedOutput
	KindSchemaViolation
	KindUpstreamService
)

func (k Kind) String() string {
	switch k {
	case KindInputValidation:
		return "input_validation"
	case KindMalformedOutput:
		return "upstream_malformed_output"
	case KindSchemaViolation:
		return "upstream_schema_violation"
	case KindUpstreamService:
		return "upstream_service"
	default:
		return "unknown"
	}
}

// Error is an operational failure with a message safe to show to the caller.
// Err keeps the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func inputError(msg string) *Error {
	return &Error{Kind: KindInputValidation, Status: http.StatusBadRequest, Message: msg}
}

func malformedError(msg string, cause error) *Error {
	return &Error{Kind: KindMalformedOutput, Status: http.StatusInternalServerError, Message: msg, Err: cause}
}

func schemaError(msg string) *Error {
	return &Error{Kind: KindSchemaViolation, Status: http.StatusInternalServerError, Message: msg}
}

// upstreamError maps a generation failure onto the pipeline taxonomy. Errors
// that are neither service nor transport failures are returned unchanged.
func upstreamError(err error) error {
	var svcErr *agent.ServiceError
	if errors.As(err, &svcErr) {
		return &Error{
			Kind:    KindUpstreamService,
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("AI service error: %d - %s", svcErr.StatusCode, svcErr.Body),
			Err:     err,
		}
	}
	var trErr *agent.TransportError
	if errors.As(err, &trErr) {
		return &Error{
			Kind:    KindUpstreamService,
			Status:  http.StatusServiceUnavailable,
			Message: "The AI service is currently unavailable. Please try again later.",
			Err:     err,
		}
	}
	return err
}

// AsError reports whether err carries an operational pipeline error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
