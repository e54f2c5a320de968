package service

import (
	"context"
	"errors"
	"fmt"

	"storycraft/internal/metrics"
	"storycraft/internal/model"
	"storycraft/internal/storage"
	"storycraft/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// StoryService runs one submission end to end: normalize, generate, clean,
// store. It is the only writer to the story store.
type StoryService struct {
	store       storage.Storage
	generator   StoryGenerator
	cleanOutput bool
}

func NewStoryService(store storage.Storage, generator StoryGenerator, cleanOutput bool) *StoryService {
	return &StoryService{
		store:       store,
		generator:   generator,
		cleanOutput: cleanOutput,
	}
}

// Create validates in, generates a story and stores it. Nothing is stored
// unless every step succeeds.
func (s *StoryService) Create(ctx context.Context, in RawInput) (*model.Story, error) {
	req, err := Normalize(in)
	if err != nil {
		return nil, err
	}
	return s.CreateFromRequest(ctx, req)
}

// CreateFromRequest is Create for input that was already normalized.
func (s *StoryService) CreateFromRequest(ctx context.Context, req model.StoryRequest) (*model.Story, error) {
	gen, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cleanOutput {
		gen.Text = CleanStory(gen.Text)
	}

	story := model.NewStory(req, gen)
	if err := s.store.CreateStory(ctx, story); err != nil {
		metrics.StoriesStoredTotal.WithLabelValues("error").Inc()
		logger.WithFields(logrus.Fields{
			"genre":      story.Genre,
			"word_count": story.WordCount,
			"bytes":      len(story.Content),
		}).Errorf("Generated story could not be stored: %v", err)
		return nil, model.NewStorageError("create", err)
	}
	metrics.StoriesStoredTotal.WithLabelValues("success").Inc()

	logger.WithFields(logrus.Fields{
		"story_id":   story.ID,
		"genre":      story.Genre,
		"length":     story.Length,
		"word_count": story.WordCount,
	}).Info("Story stored")

	return story, nil
}

// GetStory returns storage.ErrStoryNotFound unwrapped so callers can map it.
func (s *StoryService) GetStory(ctx context.Context, id string) (*model.Story, error) {
	story, err := s.store.GetStory(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrStoryNotFound) {
			return nil, err
		}
		return nil, model.NewStorageError("get", err)
	}
	return story, nil
}

// ListStories returns one page of stories, most recent first, and the total
// number stored.
func (s *StoryService) ListStories(ctx context.Context, offset, limit int) ([]*model.Story, int, error) {
	if offset < 0 {
		return nil, 0, model.NewValidationError("invalid offset", fmt.Errorf("offset %d is negative", offset))
	}
	limit = ClampLimit(limit)

	all, err := s.store.ListStories(ctx)
	if err != nil {
		return nil, 0, model.NewStorageError("list", err)
	}

	total := len(all)
	if offset >= total {
		return []*model.Story{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// ClampLimit applies the default page size and the upper bound.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
