package ai

import (
	"context"
	"sync"
)

type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	deltas   []string
	err      error
	block    bool
	requests []Request
}

func (f *fakeCompleter) record(req Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
}

func (f *fakeCompleter) Complete(ctx context.Context, req Request) (string, error) {
	f.record(req)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) Stream(ctx context.Context, req Request, onDelta func(string) error) (string, error) {
	f.record(req)
	if f.err != nil {
		return "", f.err
	}
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return "", err
		}
	}
	return f.reply, nil
}
