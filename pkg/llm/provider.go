package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamHandler receives raw response deltas as the model produces them.
// Returning an error aborts the stream.
type StreamHandler func(delta string) error

// ResponseSchema constrains the model output to a JSON schema.
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	Schema      *ResponseSchema
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithResponseSchema constrains the completion to structured output.
func WithResponseSchema(name string, schema json.RawMessage) Option {
	return func(o *Options) {
		o.Schema = &ResponseSchema{Name: name, Schema: schema}
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and streams response deltas through
	// onDelta. The full accumulated response is returned once the stream
	// is exhausted. The stream is finite and not restartable.
	ChatStream(ctx context.Context, history []Message, onDelta StreamHandler, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// VisionProvider describes an image in a single non-streamed call.
// The image travels inline as base64 data with its MIME type.
type VisionProvider interface {
	DescribeImage(ctx context.Context, mimeType string, data []byte, instructions []string) (string, error)
}
