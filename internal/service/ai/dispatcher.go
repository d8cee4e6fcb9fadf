package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
)

// DefaultTimeout bounds a model call when the caller does not configure one.
const DefaultTimeout = 60 * time.Second

const apologyPrefix = "I apologize, but I encountered an error: "

// ModelError keeps the real failure of a model call for logging while callers
// decide how to present it.
type ModelError struct {
	Agent     string
	SessionID string
	Err       error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model call failed (agent=%s session=%s): %v", e.Agent, e.SessionID, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Reason is the provider-facing cause, without the wrapper context.
func (e *ModelError) Reason() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Apology renders the in-band assistant text shown instead of a raw failure.
func Apology(err error) string {
	reason := "unknown error"
	var modelErr *ModelError
	switch {
	case errors.As(err, &modelErr):
		reason = modelErr.Reason()
	case err != nil:
		reason = err.Error()
	}
	return apologyPrefix + reason + ". Please try again."
}

// IsApology reports whether text is a substituted apology. Prefix sniffing is
// the only signal available for messages stored without the degraded flag.
func IsApology(text string) bool {
	return strings.HasPrefix(text, apologyPrefix)
}

// Dispatcher selects the system prompt for a category and calls the model.
// It holds no per-request state.
type Dispatcher struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewDispatcher builds a dispatcher. A nil completer makes every call fail with
// ErrCompleterUnavailable.
func NewDispatcher(completer Completer, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{completer: completer, timeout: timeout, logger: logger}
}

// Available reports whether a model provider is wired.
func (d *Dispatcher) Available() bool {
	return d != nil && d.completer != nil
}

// Dispatch generates a reply for an assembled prompt in the given category.
func (d *Dispatcher) Dispatch(ctx context.Context, category chat.Category, sessionID, content string) (string, error) {
	req := Request{SessionID: sessionID, SystemPrompt: SystemPrompt(category), Content: content}
	return d.Send(ctx, string(category), req)
}

// DispatchStream is Dispatch with incremental delivery.
func (d *Dispatcher) DispatchStream(ctx context.Context, category chat.Category, sessionID, content string, onDelta func(string) error) (string, error) {
	req := Request{SessionID: sessionID, SystemPrompt: SystemPrompt(category), Content: content}
	return d.SendStream(ctx, string(category), req, onDelta)
}

// Send runs an arbitrary request under the dispatcher timeout. agent labels the call in errors and logs.
func (d *Dispatcher) Send(ctx context.Context, agent string, req Request) (string, error) {
	if !d.Available() {
		return "", &ModelError{Agent: agent, SessionID: req.SessionID, Err: ErrCompleterUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started := time.Now()
	text, err := d.completer.Complete(ctx, req)
	if err != nil {
		return "", d.fail(agent, req.SessionID, started, err)
	}

	d.logger.Info("generated response",
		zap.String("agent", agent),
		zap.String("session", req.SessionID),
		zap.Int("length", len(text)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return text, nil
}

// SendStream is Send with incremental delivery.
func (d *Dispatcher) SendStream(ctx context.Context, agent string, req Request, onDelta func(string) error) (string, error) {
	if !d.Available() {
		return "", &ModelError{Agent: agent, SessionID: req.SessionID, Err: ErrCompleterUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started := time.Now()
	text, err := d.completer.Stream(ctx, req, onDelta)
	if err != nil {
		return "", d.fail(agent, req.SessionID, started, err)
	}

	d.logger.Info("streamed response",
		zap.String("agent", agent),
		zap.String("session", req.SessionID),
		zap.Int("length", len(text)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return text, nil
}

func (d *Dispatcher) fail(agent, sessionID string, started time.Time, err error) error {
	d.logger.Warn("model call failed",
		zap.String("agent", agent),
		zap.String("session", sessionID),
		zap.Duration("elapsed", time.Since(started)),
		zap.Error(err),
	)
	return &ModelError{Agent: agent, SessionID: sessionID, Err: err}
}
