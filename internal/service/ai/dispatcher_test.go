package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
)

func TestDispatchSelectsPromptByCategory(t *testing.T) {
	fake := &fakeCompleter{reply: "here is code"}
	d := NewDispatcher(fake, time.Second, nil)

	text, err := d.Dispatch(context.Background(), chat.CategoryCode, "conversation_1", "fix my bug")
	require.NoError(t, err)
	assert.Equal(t, "here is code", text)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, SystemPrompt(chat.CategoryCode), req.SystemPrompt)
	assert.Equal(t, "conversation_1", req.SessionID)
	assert.Equal(t, "fix my bug", req.Content)
}

func TestDispatchWrapsFailureInModelError(t *testing.T) {
	cause := errors.New("rate limited")
	d := NewDispatcher(&fakeCompleter{err: cause}, time.Second, nil)

	_, err := d.Dispatch(context.Background(), chat.CategoryText, "s", "hi")
	require.Error(t, err)

	var modelErr *ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "text", modelErr.Agent)
	assert.Equal(t, "s", modelErr.SessionID)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "I apologize, but I encountered an error: rate limited. Please try again.", Apology(err))
}

func TestDispatchTimesOut(t *testing.T) {
	d := NewDispatcher(&fakeCompleter{block: true}, 20*time.Millisecond, nil)

	_, err := d.Dispatch(context.Background(), chat.CategoryText, "s", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsApology(Apology(err)))
}

func TestDispatchWithoutCompleter(t *testing.T) {
	d := NewDispatcher(nil, 0, nil)
	assert.False(t, d.Available())

	_, err := d.Dispatch(context.Background(), chat.CategoryImage, "s", "draw")
	assert.ErrorIs(t, err, ErrCompleterUnavailable)
	assert.Contains(t, Apology(err), "model client not configured")
}

func TestDispatchStreamDeliversDeltas(t *testing.T) {
	fake := &fakeCompleter{reply: "Hello", deltas: []string{"Hel", "lo"}}
	d := NewDispatcher(fake, time.Second, nil)

	var got []string
	text, err := d.DispatchStream(context.Background(), chat.CategoryStrategy, "s", "plan", func(delta string) error {
		got = append(got, delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, []string{"Hel", "lo"}, got)
	assert.Equal(t, SystemPrompt(chat.CategoryStrategy), fake.requests[0].SystemPrompt)
}

func TestApologyIsDetectableOnlyByPrefix(t *testing.T) {
	degraded := Apology(errors.New("boom"))
	assert.True(t, IsApology(degraded))
	// a genuine reply that happens to start with the same words is indistinguishable
	assert.True(t, IsApology("I apologize, but I encountered an error: none, just quoting you."))
	assert.False(t, IsApology("Sure, here you go."))
	assert.True(t, strings.HasSuffix(degraded, ". Please try again."))
}
