package main

import (
	"context"
	"fmt"
	"io"

	"storycraft/internal/model"
	"storycraft/internal/service"
	"storycraft/pkg/logger"

	"github.com/charmbracelet/glamour"
)

const terminalWrap = 100

type storyCreator interface {
	Create(ctx context.Context, in service.RawInput) (*model.Story, error)
}

type markdownRenderer interface {
	Render(in string) (string, error)
}

// newTerminalRenderer picks a style for the terminal, or plain output when
// stdout is not one.
func newTerminalRenderer() (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWrap),
	)
}

// runSinglePrompt generates and stores one story, printing the plan first and
// the rendered story after.
func runSinglePrompt(ctx context.Context, stories storyCreator, md markdownRenderer, prompt string, out io.Writer) error {
	fmt.Fprintf(out, "Generating story for: %s\n", prompt)
	if plan := service.AnalyzePrompt(prompt).Plan(); plan != "" {
		fmt.Fprintf(out, "Story plan: %s\n", plan)
	}

	story, err := stories.Create(ctx, service.RawInput{Prompt: prompt})
	if err != nil {
		return err
	}

	text := fmt.Sprintf("# %s\n\n%s\n", story.Title, story.Content)
	rendered, err := md.Render(text)
	if err != nil {
		logger.Warnf("Could not render story, printing it raw: %v", err)
		rendered = text
	}
	fmt.Fprintln(out, rendered)
	fmt.Fprintf(out, "Saved as story %s (%s, %s, %d words)\n", story.ID, story.Genre.Title(), story.Length, story.WordCount)
	return nil
}
