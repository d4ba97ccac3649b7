package models

import (
	"context"
	"errors"
)

// LLMProvider is the interface every language-model integration implements.
// Never call a specific provider directly; inject this interface.
type LLMProvider interface {
	// Complete sends a single user message and returns the completion text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "deepseek", "anthropic").
	Name() string
}

// CompletionRequest is the input to one model call.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Provider-level failures. Every LLMProvider wraps one of these so callers
// can tell a dead endpoint from a slow one from a garbled reply.
var (
	ErrLLMUnavailable     = errors.New("ai provider unavailable")
	ErrLLMTimeout         = errors.New("ai inference timeout")
	ErrLLMInvalidResponse = errors.New("ai provider returned invalid response")
)
