package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangchainCompleter talks to OpenAI-compatible endpoints through langchaingo.
type LangchainCompleter struct {
	llm  llms.Model
	opts []llms.CallOption
}

// NewLangchainCompleter wraps an existing langchaingo model.
func NewLangchainCompleter(llm llms.Model, opts ...llms.CallOption) *LangchainCompleter {
	return &LangchainCompleter{llm: llm, opts: opts}
}

// NewOpenAICompleter dials an OpenAI-compatible API with the given model name.
func NewOpenAICompleter(baseURL, token, modelName string, opts ...llms.CallOption) (*LangchainCompleter, error) {
	clientOpts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(modelName),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return NewLangchainCompleter(llm, opts...), nil
}

func contentFor(req Request) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Content),
	}
}

// Complete sends a single system+user exchange.
func (c *LangchainCompleter) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, contentFor(req), c.opts...)
	if err != nil {
		return "", err
	}
	return firstChoice(resp)
}

// Stream relays streamed chunks to onDelta.
func (c *LangchainCompleter) Stream(ctx context.Context, req Request, onDelta func(string) error) (string, error) {
	opts := append(append([]llms.CallOption(nil), c.opts...), llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		if onDelta == nil || len(chunk) == 0 {
			return nil
		}
		return onDelta(string(chunk))
	}))

	resp, err := c.llm.GenerateContent(ctx, contentFor(req), opts...)
	if err != nil {
		return "", err
	}
	return firstChoice(resp)
}

func firstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", errors.New("empty response content")
	}
	return resp.Choices[0].Content, nil
}
