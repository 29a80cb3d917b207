package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"quantcrew/internal/config"
)

const defaultMaxTokens = 4000

// NewChatModel builds the chat model for the configured provider. All agents
// share one model instance; eino models are safe for concurrent use.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	switch cfg.LLMProvider {
	case "deepseek":
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.QuickThinkLLM,
			BaseURL:   cfg.BackendURL,
			MaxTokens: defaultMaxTokens,
		})
	case "openai":
		maxTokens := defaultMaxTokens
		mc := &openai.ChatModelConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.QuickThinkLLM,
			MaxTokens: &maxTokens,
		}
		if cfg.BackendURL != "" {
			mc.BaseURL = cfg.BackendURL
		}
		return openai.NewChatModel(ctx, mc)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
