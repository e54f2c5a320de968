package service

import (
	"fmt"
	"strings"

	"storycraft/internal/model"
)

// BuildStoryPrompt renders the user message sent to the chat model. Genre is
// omitted when it resolved to general, tone when it is neutral.
func BuildStoryPrompt(req model.StoryRequest, genre model.Genre, length model.Length, a PromptAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a story based on this request: '%s'\n\n", req.Prompt)

	if genre != model.GenreGeneral && genre != model.GenreAuto {
		fmt.Fprintf(&b, "Genre: %s\n", genre.Title())
	}
	fmt.Fprintf(&b, "Length: %s\n", length.Description())
	if a.Tone != "" && a.Tone != ToneNeutral {
		fmt.Fprintf(&b, "Tone: %s\n", a.Tone)
	}
	if a.Protagonist != "" {
		fmt.Fprintf(&b, "Main character: %s\n", a.Protagonist)
	}
	if a.Setting != "" {
		fmt.Fprintf(&b, "Setting: %s\n", a.Setting)
	}

	b.WriteString("\nPlease create a complete, engaging story that fulfills this request. Make sure to:\n")
	b.WriteString("- Create compelling characters with clear motivations\n")
	b.WriteString("- Include vivid descriptions and engaging dialogue\n")
	b.WriteString("- Ensure the story has a clear beginning, middle, and satisfying end\n")
	fmt.Fprintf(&b, "- Write approximately %d words\n", length.Words())
	b.WriteString("\nWrite the story now:")

	return b.String()
}

// maxTokensFor allows roughly two tokens per target word, capped.
func maxTokensFor(length model.Length, limit int) int {
	n := length.Words() * 2
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
