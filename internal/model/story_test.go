package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenre(t *testing.T) {
	cases := map[string]Genre{
		"":                GenreAuto,
		"auto":            GenreAuto,
		"Auto-Detect":     GenreAuto,
		"fantasy":         GenreFantasy,
		" HORROR ":        GenreHorror,
		"sci-fi":          GenreSciFi,
		"science fiction": GenreSciFi,
		"contemporary":    GenreContemporary,
	}
	for in, want := range cases {
		got, err := ParseGenre(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseGenre("western")
	assert.Error(t, err)
	_, err = ParseGenre("general")
	assert.Error(t, err, "general is a resolved value, not a selection")
}

func TestParseLength(t *testing.T) {
	got, err := ParseLength("")
	require.NoError(t, err)
	assert.Equal(t, LengthAuto, got)

	got, err = ParseLength("Epic")
	require.NoError(t, err)
	assert.Equal(t, LengthEpic, got)
	assert.Equal(t, 5000, got.Words())

	_, err = ParseLength("novella")
	assert.Error(t, err)
}

func TestLengthWords(t *testing.T) {
	assert.Equal(t, 500, LengthShort.Words())
	assert.Equal(t, 1500, LengthMedium.Words())
	assert.Equal(t, 3000, LengthLong.Words())
	assert.Equal(t, 0, LengthAuto.Words())
	assert.Equal(t, "Long story (~3000 words)", LengthLong.Description())
}

func TestGenreTitle(t *testing.T) {
	assert.Equal(t, "Sci-Fi", GenreSciFi.Title())
	assert.Equal(t, "Fantasy", GenreFantasy.Title())
}

func TestTitleFromPrompt(t *testing.T) {
	assert.Equal(t, "A dragon learns to bake bread", TitleFromPrompt("A dragon learns to bake bread"))
	assert.Equal(t, "First line", TitleFromPrompt("First line\nsecond line"))

	long := strings.Repeat("é", 60)
	got := TitleFromPrompt(long)
	assert.Equal(t, strings.Repeat("é", 50)+"...", got)
}

func TestNewStoryCountsWords(t *testing.T) {
	req := StoryRequest{Prompt: "A dragon learns to bake bread", Genre: GenreFantasy, Length: LengthShort}
	gen := &Generation{Text: "one two  three\nfour", Genre: GenreFantasy, Length: LengthShort, Model: "m"}

	s := NewStory(req, gen)
	assert.Equal(t, 4, s.WordCount)
	assert.Equal(t, "m", s.Model)
	assert.Empty(t, s.ID)

	c := s.Clone()
	c.Title = "changed"
	assert.NotEqual(t, s.Title, c.Title)
}

func TestKindOf(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := fmt.Errorf("create: %w", NewStorageError("create", cause))

	assert.Equal(t, KindStorage, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindValidation, KindOf(NewValidationError("empty prompt", nil)))
	assert.Equal(t, KindGeneration, KindOf(NewGenerationError("timeout", cause)))
	assert.Equal(t, ErrorKind(""), KindOf(cause))

	assert.Equal(t, "empty prompt", NewValidationError("empty prompt", nil).Error())
}

func TestPublicMessageHidesCauses(t *testing.T) {
	cause := errors.New("[NodeRunError] context canceled")

	assert.Equal(t, "generation failed: provider error", PublicMessage(NewGenerationError("provider error", cause)))
	assert.Equal(t, "the story could not be saved", PublicMessage(NewStorageError("create", errors.New("disk full"))))
	assert.Equal(t, "empty prompt", PublicMessage(fmt.Errorf("normalize: %w", NewValidationError("empty prompt", nil))))
	assert.Equal(t, "internal error", PublicMessage(cause))
}

func TestSubmissionStateTerminal(t *testing.T) {
	assert.False(t, SubmissionPending.Terminal())
	assert.True(t, SubmissionSucceeded.Terminal())
	assert.True(t, SubmissionFailed.Terminal())
}
