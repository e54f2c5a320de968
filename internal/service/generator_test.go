package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storycraft/internal/config"
	"storycraft/internal/model"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenConfig() config.GenerationConfig {
	return config.GenerationConfig{
		Timeout:      time.Second,
		MaxTokensCap: 4000,
		Temperature:  0.8,
		TopP:         0.9,
	}
}

func newTestGenerator(t *testing.T, chat *fakeChatModel, cfg config.GenerationConfig) *Generator {
	t.Helper()
	g, err := NewGenerator(context.Background(), chat, "test-model", cfg)
	require.NoError(t, err)
	return g
}

func TestGeneratorEchoesExplicitSelections(t *testing.T) {
	chat := &fakeChatModel{reply: "Once upon a time"}
	g := newTestGenerator(t, chat, testGenConfig())

	gen, err := g.Generate(context.Background(), model.StoryRequest{
		Prompt: "A dragon learns to bake bread",
		Genre:  model.GenreHorror,
		Length: model.LengthShort,
	})
	require.NoError(t, err)

	assert.Equal(t, "Once upon a time", gen.Text)
	assert.Equal(t, model.GenreHorror, gen.Genre)
	assert.Equal(t, model.LengthShort, gen.Length)
	assert.Equal(t, "test-model", gen.Model)

	require.Len(t, chat.calls, 1)
	msgs := chat.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, config.DefaultSystemPrompt, msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Genre: Horror")

	opts := chat.opts[0]
	require.NotNil(t, opts.MaxTokens)
	assert.Equal(t, 1000, *opts.MaxTokens)
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.8, *opts.Temperature, 0.001)
	require.NotNil(t, opts.TopP)
	assert.InDelta(t, 0.9, *opts.TopP, 0.001)
}

func TestGeneratorResolvesAuto(t *testing.T) {
	chat := &fakeChatModel{reply: "story"}
	g := newTestGenerator(t, chat, testGenConfig())

	gen, err := g.Generate(context.Background(), model.StoryRequest{
		Prompt: "An epic quest to find a wizard's lost spell",
		Genre:  model.GenreAuto,
		Length: model.LengthAuto,
	})
	require.NoError(t, err)

	assert.Equal(t, model.GenreFantasy, gen.Genre)
	assert.Equal(t, model.LengthEpic, gen.Length)
	assert.Equal(t, 4000, *chat.opts[0].MaxTokens)
}

func TestGeneratorProviderError(t *testing.T) {
	cause := errors.New("502 bad gateway")
	g := newTestGenerator(t, &fakeChatModel{err: cause}, testGenConfig())

	_, err := g.Generate(context.Background(), model.StoryRequest{Prompt: "p", Genre: model.GenreAuto, Length: model.LengthAuto})
	require.Error(t, err)
	assert.Equal(t, model.KindGeneration, model.KindOf(err))
	assert.Contains(t, err.Error(), cause.Error())
}

func TestGeneratorTimeout(t *testing.T) {
	cfg := testGenConfig()
	cfg.Timeout = 20 * time.Millisecond
	g := newTestGenerator(t, &fakeChatModel{block: true}, cfg)

	start := time.Now()
	_, err := g.Generate(context.Background(), model.StoryRequest{Prompt: "p", Genre: model.GenreAuto, Length: model.LengthAuto})
	require.Error(t, err)

	var genErr *model.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "timed out", genErr.Reason)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGeneratorBlankContent(t *testing.T) {
	g := newTestGenerator(t, &fakeChatModel{reply: "  \n "}, testGenConfig())

	_, err := g.Generate(context.Background(), model.StoryRequest{Prompt: "p", Genre: model.GenreAuto, Length: model.LengthAuto})
	require.Error(t, err)
	assert.Equal(t, model.KindGeneration, model.KindOf(err))
}

func TestGeneratorKeepsBracesInUserText(t *testing.T) {
	chat := &fakeChatModel{reply: "story"}
	cfg := testGenConfig()
	cfg.SystemPrompt = "You write {short} stories."
	g := newTestGenerator(t, chat, cfg)

	_, err := g.Generate(context.Background(), model.StoryRequest{
		Prompt: "A robot named {R2} finds a map",
		Genre:  model.GenreSciFi,
		Length: model.LengthShort,
	})
	require.NoError(t, err)

	msgs := chat.calls[0]
	assert.Equal(t, "You write {short} stories.", msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "A robot named {R2} finds a map")
}
