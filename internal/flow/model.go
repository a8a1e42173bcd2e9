package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
)

// DefaultModel is the model every flow targets unless the service is configured otherwise.
const DefaultModel = "gemini-2.0-flash"

// Config carries per-call configuration. The credential travels here and
// never inside prompt text.
type Config struct {
	APIKey string
}

// GenerateRequest is what a flow hands to the model client.
type GenerateRequest struct {
	Model string
	// System is an optional system instruction.
	System string
	Prompt string
	// ImageDataURI is an optional data:<mime>;base64,<payload> image.
	ImageDataURI string
	// Schema describes the expected JSON output. Nil for free text.
	Schema *Schema
	Config Config
}

// Chunk is one element of a streamed response. Exactly one of Text or Err is
// set for a recognized chunk; a chunk with neither is unrecognized.
type Chunk struct {
	Text *string
	Err  error
}

// TextChunk builds a text chunk.
func TextChunk(s string) Chunk {
	return Chunk{Text: &s}
}

// Stream is an incrementally consumed model response. Chunks yields a non-nil
// error when iteration itself fails. Response resolves the overall response
// and releases upstream resources.
type Stream struct {
	Chunks   iter.Seq2[Chunk, error]
	Response func(ctx context.Context) error
}

// ModelClient is the hosted model as seen by the flows.
type ModelClient interface {
	// Generate performs a single structured call and returns the raw JSON
	// output, which may be empty or null.
	Generate(ctx context.Context, req GenerateRequest) (json.RawMessage, error)
	// GenerateStream starts a streamed free-text call.
	GenerateStream(ctx context.Context, req GenerateRequest) (*Stream, error)
}

// StatusError is a model API failure with a status payload.
type StatusError struct {
	Code    int
	Status  string
	Message string
	Details any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("model API error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("model API error %d %s", e.Code, e.Status)
}
