// Package llm defines the external model capability consumed by the
// pipelines and ships an OpenAI-compatible HTTP implementation plus a
// scripted mock for tests.
//
// The pipelines treat every call as potentially failing and never assume
// success; a failed call becomes a degraded stage, not a crash.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client is the model capability injected into the pipelines.
// Implementations must be safe for concurrent use: independent pipeline
// runs share one client.
type Client interface {
	// Complete generates free text for a prompt.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CompleteStructured generates output constrained to JSON.
	// The schema is a plain-language description of the expected keys;
	// the returned bytes are the raw JSON for the caller to unmarshal.
	CompleteStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error)

	// CompleteVision generates text from a prompt plus an image.
	CompleteVision(ctx context.Context, req VisionRequest) (*CompletionResponse, error)

	// Transcribe converts audio to text.
	Transcribe(ctx context.Context, req TranscriptionRequest) (*Transcription, error)
}

// APIError is a non-2xx response from the model service.
type APIError struct {
	// StatusCode is the HTTP status returned.
	StatusCode int
	// Body is the raw response body, for diagnostics.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API request failed with status %d: %s", e.StatusCode, e.Body)
}
