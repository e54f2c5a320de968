package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const emberStory = "Ember the dragon lived alone on a cold mountain above the village of Thornby.\n\n" +
	"Every morning she smelled bread drifting up from the valley, warm and golden, and every morning she sighed.\n\n" +
	"\"Teach me,\" she said to the baker at last."

func TestCleanStoryDropsPlanningParagraphs(t *testing.T) {
	raw := "Okay, the user wants a story about a dragon who bakes. Let me think.\n\n" +
		"Themes: friendship, patience.\n\n" +
		emberStory

	assert.Equal(t, emberStory, CleanStory(raw))
}

func TestCleanStoryDropsParagraphEndingAtCapital(t *testing.T) {
	raw := "First, I need to set the scene\n" + emberStory
	assert.Equal(t, emberStory, CleanStory(raw))
}

func TestCleanStorySkipsLeadingPlanningLines(t *testing.T) {
	raw := "\nlet me think step by step about this one\n\n" + emberStory
	assert.Equal(t, emberStory, CleanStory(raw))
}

func TestCleanStoryKeepsOrdinaryText(t *testing.T) {
	assert.Equal(t, emberStory, CleanStory("\n\n"+emberStory+"\n"))
}

func TestCleanStoryKeepsOriginalWhenTooLittleRemains(t *testing.T) {
	raw := "Okay, the user wants something short.\n\nThe end."
	assert.Equal(t, raw, CleanStory(raw))
}

func TestCleanStoryIgnoresPrefixWithoutParagraphEnd(t *testing.T) {
	raw := strings.Repeat("word ", 30) + "\nMaybe this is the whole thing"
	got := CleanStory(raw)
	assert.Contains(t, got, "Maybe this is the whole thing")
}

func TestCleanStoryKeepsParagraphCleanedTextWhenEveryLineLooksLikePlanning(t *testing.T) {
	body := "She had to keep the lantern lit through the storm, and she would keep it lit until the sailors came home.\n\n" +
		"All night she listened to the dialogue of waves and rocks beneath the old tower."
	raw := "Okay, the user wants a quiet story about a lighthouse.\n\n" + body

	assert.Equal(t, body, CleanStory(raw))
}
