package model

import (
	"context"
	"fmt"

	"storycraft/internal/config"
	"storycraft/internal/utils"
	"storycraft/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
)

// NewChatModel builds the chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg config.ProviderConfig, gen config.GenerationConfig) (einoModel.BaseChatModel, error) {
	switch cfg.Name {
	case "openai":
		return newOpenAIChatModel(cfg.OpenAI, gen), nil
	case "ark":
		return createDoubaoModel(ctx, cfg.Doubao)
	case "qwen":
		return createQwenModel(ctx, cfg.Qwen, gen)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Name)
	}
}

func createDoubaoModel(ctx context.Context, cfg config.DoubaoConfig) (einoModel.BaseChatModel, error) {
	logger.Infof("Using Doubao model %s (key %s)", cfg.Model, maskKey(cfg.APIKey))

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		// stories should not carry the model's reasoning
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create doubao model: %w", err)
	}
	return chatModel, nil
}

func createQwenModel(ctx context.Context, cfg config.QwenConfig, gen config.GenerationConfig) (einoModel.BaseChatModel, error) {
	logger.Infof("Using Qwen model %s at %s (key %s)", cfg.Model, cfg.BaseURL, maskKey(cfg.APIKey))

	httpClient := utils.NewHTTPClient(gen.Timeout)
	httpClient.Transport = NewProviderTransport(httpClient.Transport, nil, cfg.DebugRequest)

	temperature := gen.Temperature
	topP := gen.TopP
	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: &temperature,
		TopP:        &topP,
		Timeout:     gen.Timeout,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}
	return chatModel, nil
}

func maskKey(key string) string {
	if len(key) > 10 {
		return key[:10] + "..."
	}
	return "***"
}
