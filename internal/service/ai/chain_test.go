package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply  string
	chunks []string
	err    error
	input  []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	msgs := make([]*schema.Message, 0, len(f.chunks))
	for _, c := range f.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

func TestChainCompleterComplete(t *testing.T) {
	ctx := context.Background()
	fake := &fakeChatModel{reply: "pong"}
	completer, err := NewChainCompleter(ctx, fake)
	require.NoError(t, err)

	text, err := completer.Complete(ctx, Request{SystemPrompt: "be brief", Content: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", text)

	require.Len(t, fake.input, 2)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, "be brief", fake.input[0].Content)
	assert.Equal(t, schema.User, fake.input[1].Role)
	assert.Equal(t, "ping", fake.input[1].Content)
}

func TestChainCompleterStream(t *testing.T) {
	ctx := context.Background()
	completer, err := NewChainCompleter(ctx, &fakeChatModel{chunks: []string{"Hel", "lo"}})
	require.NoError(t, err)

	var deltas []string
	text, err := completer.Stream(ctx, Request{SystemPrompt: "s", Content: "c"}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
}

func TestChainCompleterPropagatesErrors(t *testing.T) {
	ctx := context.Background()
	completer, err := NewChainCompleter(ctx, &fakeChatModel{err: errors.New("quota exceeded")})
	require.NoError(t, err)

	_, err = completer.Complete(ctx, Request{SystemPrompt: "s", Content: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewChainCompleterRequiresModel(t *testing.T) {
	_, err := NewChainCompleter(context.Background(), nil)
	assert.Error(t, err)
}
