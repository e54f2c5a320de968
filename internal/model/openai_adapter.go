package model

import (
	"context"
	"errors"
	"fmt"

	"storycraft/internal/config"
	"storycraft/internal/utils"
	"storycraft/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

var errStreamingUnsupported = errors.New("streaming is not supported for story generation")

// openaiChatModel adapts any OpenAI-compatible endpoint (OpenRouter by default)
// to eino's BaseChatModel.
type openaiChatModel struct {
	client           *openai.Client
	model            string
	presencePenalty  float32
	frequencyPenalty float32
}

func newOpenAIChatModel(cfg config.OpenAIConfig, gen config.GenerationConfig) *openaiChatModel {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		headers["X-Title"] = cfg.Title
	}
	httpClient := utils.NewHTTPClient(gen.Timeout)
	httpClient.Transport = NewProviderTransport(httpClient.Transport, headers, cfg.DebugRequest)
	clientConfig.HTTPClient = httpClient

	logger.Infof("Using OpenAI-compatible model %s at %s", cfg.Model, clientConfig.BaseURL)

	return &openaiChatModel{
		client:           openai.NewClientWithConfig(clientConfig),
		model:            cfg.Model,
		presencePenalty:  gen.PresencePenalty,
		frequencyPenalty: gen.FrequencyPenalty,
	}
}

func (m *openaiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	modelName := m.model
	options := einoModel.GetCommonOptions(&einoModel.Options{Model: &modelName}, opts...)

	req := openai.ChatCompletionRequest{
		Model:            *options.Model,
		Messages:         m.convertMessages(messages),
		PresencePenalty:  m.presencePenalty,
		FrequencyPenalty: m.frequencyPenalty,
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	if options.TopP != nil {
		req.TopP = *options.TopP
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response from %s", req.Model)
	}

	choice := resp.Choices[0]
	logger.Debugf("OpenAI completion done: model=%s finish=%s tokens=%d", resp.Model, choice.FinishReason, resp.Usage.TotalTokens)

	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

// Stream is part of the eino interface; stories are only ever returned whole.
func (m *openaiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errStreamingUnsupported
}

func (m *openaiChatModel) convertMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		case schema.System:
			role = openai.ChatMessageRoleSystem
		}

		// empty assistant turns are rejected by several providers
		if msg.Content == "" && role == openai.ChatMessageRoleAssistant {
			continue
		}

		result = append(result, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return result
}
