package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamHandler receives each text delta as the provider produces it.
// Returning an error aborts the stream.
type StreamHandler func(delta string) error

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature     float64
	MaxTokens       int
	Model           string // Override default model
	SearchGrounding bool
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

// WithSearchGrounding asks the provider to ground answers in web search
// results. Only Gemini honors it; the others ignore the flag.
func WithSearchGrounding(enabled bool) Option {
	return func(o *Options) {
		o.SearchGrounding = enabled
	}
}

// Provider defines the contract for any LLM backend
type Provider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and relays text deltas to onDelta as
	// the provider produces them. It returns the accumulated full text once
	// the provider signals completion.
	ChatStream(ctx context.Context, history []Message, onDelta StreamHandler, options ...Option) (string, error)
}
