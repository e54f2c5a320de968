package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"storycraft/internal/model"
	"storycraft/internal/service"

	"github.com/charmbracelet/glamour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	story *model.Story
	err   error
	got   []service.RawInput
}

func (f *fakeCreator) Create(ctx context.Context, in service.RawInput) (*model.Story, error) {
	f.got = append(f.got, in)
	return f.story, f.err
}

func plainRenderer(t *testing.T) *glamour.TermRenderer {
	t.Helper()
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(terminalWrap))
	require.NoError(t, err)
	return r
}

type failingRenderer struct{}

func (failingRenderer) Render(string) (string, error) { return "", errors.New("no style") }

func TestRunSinglePromptPrintsPlanAndStory(t *testing.T) {
	creator := &fakeCreator{story: &model.Story{
		ID:        "7",
		Title:     "A dragon learns to bake bread",
		Content:   "Ember the dragon smelled bread.",
		Genre:     model.GenreFantasy,
		Length:    model.LengthShort,
		WordCount: 5,
	}}

	var out bytes.Buffer
	err := runSinglePrompt(context.Background(), creator, plainRenderer(t), "A short tale of a dragon who bakes", &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Generating story for: A short tale of a dragon who bakes")
	assert.Contains(t, text, "Story plan: Genre: Fantasy • Length: Short story (~500 words)")
	assert.Contains(t, text, "Ember the dragon smelled bread.")
	assert.Contains(t, text, "Saved as story 7")

	require.Len(t, creator.got, 1)
	assert.Equal(t, "A short tale of a dragon who bakes", creator.got[0].Prompt)
}

func TestRunSinglePromptReturnsError(t *testing.T) {
	creator := &fakeCreator{err: model.NewGenerationError("timed out", context.DeadlineExceeded)}

	var out bytes.Buffer
	err := runSinglePrompt(context.Background(), creator, plainRenderer(t), "p", &out)

	var genErr *model.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.NotContains(t, out.String(), "Saved as story")
}

func TestRunSinglePromptFallsBackToRawText(t *testing.T) {
	creator := &fakeCreator{story: &model.Story{ID: "2", Title: "Lantern", Content: "The lamp stayed lit.", Genre: model.GenreGeneral, Length: model.LengthMedium}}

	var out bytes.Buffer
	require.NoError(t, runSinglePrompt(context.Background(), creator, failingRenderer{}, "lantern", &out))
	assert.Contains(t, out.String(), "# Lantern\n\nThe lamp stayed lit.")
	assert.Contains(t, out.String(), "Saved as story 2")
}

func TestRootCommandFlags(t *testing.T) {
	t.Cleanup(func() { prompt, modelName, apiKey = "", "", "" })

	require.NoError(t, rootCmd.ParseFlags([]string{
		"--prompt", "A lighthouse keeper hears knocking",
		"--model", "meta/llama-flag",
		"--api-key", "sk-flag",
	}))

	assert.Equal(t, "A lighthouse keeper hears knocking", prompt)
	assert.Equal(t, "meta/llama-flag", modelName)
	assert.Equal(t, "sk-flag", apiKey)
	assert.Equal(t, "./configs/config.yaml", configPath)
}
