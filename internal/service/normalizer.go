package service

import (
	"strings"

	"storycraft/internal/model"
)

// RawInput is a submission as it arrives from a form or API body, before any
// validation.
type RawInput struct {
	Prompt      string
	FileContent string
	Genre       string
	Length      string
}

func RawInputFromRequest(req *model.CreateStoryRequest) RawInput {
	return RawInput{
		Prompt:      req.Prompt,
		FileContent: req.FileContent,
		Genre:       req.Genre,
		Length:      req.Length,
	}
}

// Normalize reconciles raw input into a StoryRequest. Uploaded file content
// that is non-blank always replaces the typed prompt.
func Normalize(in RawInput) (model.StoryRequest, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if file := strings.TrimSpace(in.FileContent); file != "" {
		prompt = file
	}
	if prompt == "" {
		return model.StoryRequest{}, model.NewValidationError("empty prompt", nil)
	}

	genre, err := model.ParseGenre(in.Genre)
	if err != nil {
		return model.StoryRequest{}, model.NewValidationError("invalid genre", err)
	}
	length, err := model.ParseLength(in.Length)
	if err != nil {
		return model.StoryRequest{}, model.NewValidationError("invalid length", err)
	}

	return model.StoryRequest{Prompt: prompt, Genre: genre, Length: length}, nil
}
