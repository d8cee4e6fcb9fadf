package ai

import (
	"context"
	"errors"
)

// ErrCompleterUnavailable is returned when no model provider is configured.
var ErrCompleterUnavailable = errors.New("model client not configured")

// Request is a single completion call against the external model.
type Request struct {
	// SessionID scopes provider-side memory; it is independent of stored history.
	SessionID    string
	SystemPrompt string
	Content      string
}

// Completer is the provider boundary for text generation.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Stream delivers deltas to onDelta and returns the full text.
	Stream(ctx context.Context, req Request, onDelta func(delta string) error) (string, error)
}
