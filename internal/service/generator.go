package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storycraft/internal/config"
	"storycraft/internal/metrics"
	"storycraft/internal/model"
	"storycraft/pkg/logger"

	"github.com/cloudwego/eino/callbacks"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
)

// StoryGenerator turns a canonical request into story text.
type StoryGenerator interface {
	Generate(ctx context.Context, req model.StoryRequest) (*model.Generation, error)
}

// storyInput is the graph input: the request plus what was resolved for it.
type storyInput struct {
	Request  model.StoryRequest
	Genre    model.Genre
	Length   model.Length
	Analysis PromptAnalysis
}

// Generator is the StoryGenerator backed by a chat model. It makes exactly one
// call per request and never streams.
type Generator struct {
	graph     compose.Runnable[*storyInput, *schema.Message]
	modelName string
	cfg       config.GenerationConfig
	callback  callbacks.Handler
}

func NewGenerator(ctx context.Context, chat einoModel.BaseChatModel, modelName string, cfg config.GenerationConfig) (*Generator, error) {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = config.DefaultSystemPrompt
	}

	graph, err := composeStoryGraph(ctx, chat, cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}

	return &Generator{
		graph:     graph,
		modelName: modelName,
		cfg:       cfg,
		callback:  logCallback(),
	}, nil
}

func newStoryPrompt() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage("{system_prompt}"),
		schema.UserMessage("{story_prompt}"),
	)
}

// composeStoryGraph wires StoryInputToMap -> StoryTemplate -> StoryModel.
func composeStoryGraph(ctx context.Context, chat einoModel.BaseChatModel, systemPrompt string) (compose.Runnable[*storyInput, *schema.Message], error) {
	g := compose.NewGraph[*storyInput, *schema.Message]()

	toMap := compose.InvokableLambda(func(ctx context.Context, in *storyInput) (map[string]any, error) {
		return map[string]any{
			"system_prompt": systemPrompt,
			"story_prompt":  BuildStoryPrompt(in.Request, in.Genre, in.Length, in.Analysis),
		}, nil
	})

	if err := g.AddLambdaNode("StoryInputToMap", toMap); err != nil {
		return nil, err
	}
	if err := g.AddChatTemplateNode("StoryTemplate", newStoryPrompt()); err != nil {
		return nil, err
	}
	if err := g.AddChatModelNode("StoryModel", chat); err != nil {
		return nil, err
	}

	if err := g.AddEdge(compose.START, "StoryInputToMap"); err != nil {
		return nil, err
	}
	if err := g.AddEdge("StoryInputToMap", "StoryTemplate"); err != nil {
		return nil, err
	}
	if err := g.AddEdge("StoryTemplate", "StoryModel"); err != nil {
		return nil, err
	}
	if err := g.AddEdge("StoryModel", compose.END); err != nil {
		return nil, err
	}

	return g.Compile(ctx, compose.WithGraphName("StoryGeneration"))
}

func logCallback() callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
			logger.Debugf("Node %s started", info.Name)
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			logger.Debugf("Node %s finished", info.Name)
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			logger.Debugf("Node %s failed: %v", info.Name, err)
			return ctx
		}).
		Build()
}

func (g *Generator) Generate(ctx context.Context, req model.StoryRequest) (*model.Generation, error) {
	analysis := AnalyzePrompt(req.Prompt)

	in := &storyInput{Request: req, Genre: req.Genre, Length: req.Length, Analysis: analysis}
	if in.Genre == model.GenreAuto || in.Genre == "" {
		in.Genre = analysis.Genre
	}
	if in.Length == model.LengthAuto || in.Length == "" {
		in.Length = analysis.Length
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	log := logger.WithFields(logrus.Fields{
		"genre":  in.Genre,
		"length": in.Length,
		"tone":   analysis.Tone,
		"model":  g.modelName,
	})
	log.Info("Requesting story generation")

	start := time.Now()
	msg, err := g.graph.Invoke(ctx, in,
		compose.WithCallbacks(g.callback),
		compose.WithChatModelOption(
			einoModel.WithMaxTokens(maxTokensFor(in.Length, g.cfg.MaxTokensCap)),
			einoModel.WithTemperature(g.cfg.Temperature),
			einoModel.WithTopP(g.cfg.TopP),
		),
	)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.GenerationsTotal.WithLabelValues("timeout").Inc()
			log.Warnf("Generation timed out after %s", g.cfg.Timeout)
			return nil, model.NewGenerationError("timed out", ctx.Err())
		}
		metrics.GenerationsTotal.WithLabelValues("error").Inc()
		log.Errorf("Generation failed: %v", err)
		return nil, model.NewGenerationError("provider error", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		metrics.GenerationsTotal.WithLabelValues("empty").Inc()
		log.Warn("Provider returned no story text")
		return nil, model.NewGenerationError("empty response", nil)
	}

	metrics.GenerationsTotal.WithLabelValues("success").Inc()
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Story generated")

	return &model.Generation{
		Text:   msg.Content,
		Genre:  in.Genre,
		Length: in.Length,
		Tone:   analysis.Tone,
		Model:  g.modelName,
	}, nil
}
