// Package aitest provides a scripted ai.Completer for tests.
package aitest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/creator-surge/backend/internal/service/ai"
)

// Completer replies with Reply (or the joined Deltas when streaming) unless Err is set.
// Delay holds every call before it answers.
type Completer struct {
	mu       sync.Mutex
	Reply    string
	Deltas   []string
	Err      error
	Delay    time.Duration
	requests []ai.Request
}

var _ ai.Completer = (*Completer)(nil)

func (c *Completer) Complete(ctx context.Context, req ai.Request) (string, error) {
	c.record(req)
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if c.Err != nil {
		return "", c.Err
	}
	if c.Reply == "" && len(c.Deltas) > 0 {
		return strings.Join(c.Deltas, ""), nil
	}
	return c.Reply, nil
}

func (c *Completer) Stream(ctx context.Context, req ai.Request, onDelta func(string) error) (string, error) {
	c.record(req)
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if c.Err != nil {
		return "", c.Err
	}
	deltas := c.Deltas
	if len(deltas) == 0 && c.Reply != "" {
		deltas = []string{c.Reply}
	}
	for _, d := range deltas {
		if err := onDelta(d); err != nil {
			return "", err
		}
	}
	return strings.Join(deltas, ""), nil
}

// Requests returns a copy of every request seen so far.
func (c *Completer) Requests() []ai.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ai.Request(nil), c.requests...)
}

func (c *Completer) record(req ai.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
}

func (c *Completer) wait(ctx context.Context) error {
	if c.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
