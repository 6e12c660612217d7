package agent

import (
	"context"
	"fmt"
)

// Generator is the text generation capability used by the diagnosis pipeline.
// Implementations return the raw text produced by the service and never retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request describes a single generation call.
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string

	// JSONObject asks the service to emit a single JSON object.
	JSONObject  bool
	Temperature float64
	MaxTokens   int

	// Optional decoding parameters, nil means "service default".
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

// ServiceError means the generation service answered, but with an error status
// or a payload that could not be used.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation API error: %d - %s", e.StatusCode, e.Body)
}

// TransportError means no response was received at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
