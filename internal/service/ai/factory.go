package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/zhouzirui/creator-surge/backend/internal/config"
)

// NewCompleter builds the configured provider for modelName.
func NewCompleter(ctx context.Context, cfg config.AIConfig, modelName string) (Completer, error) {
	if !cfg.Enabled() {
		return nil, ErrCompleterUnavailable
	}

	switch cfg.Provider {
	case config.ProviderArk:
		chatModel, err := cfg.WithModel(modelName).NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		completer, err := NewChainCompleter(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return completer, nil
	default:
		var opts []llms.CallOption
		if cfg.Temperature != nil {
			opts = append(opts, llms.WithTemperature(*cfg.Temperature))
		}
		if cfg.TopP != nil {
			opts = append(opts, llms.WithTopP(*cfg.TopP))
		}
		if cfg.MaxTokens != nil {
			opts = append(opts, llms.WithMaxTokens(*cfg.MaxTokens))
		}
		completer, err := NewOpenAICompleter(cfg.OpenAIBaseURL, cfg.OpenAIKey, modelName, opts...)
		if err != nil {
			return nil, err
		}
		return completer, nil
	}
}
