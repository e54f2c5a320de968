package storage

import (
	"context"
	"sync"
	"time"

	"storycraft/internal/model"
)

type MemoryStorage struct {
	stories map[string]*model.Story
	lastID  uint64
	mu      sync.RWMutex
	now     func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		stories: make(map[string]*model.Story),
		now:     time.Now,
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Backup() error {
	return nil
}

func (m *MemoryStorage) CreateStory(ctx context.Context, story *model.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	story.ID = formatID(m.lastID)
	if story.CreatedAt.IsZero() {
		story.CreatedAt = m.now().UTC()
	}

	m.stories[story.ID] = story.Clone()
	return nil
}

func (m *MemoryStorage) GetStory(ctx context.Context, id string) (*model.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	story, exists := m.stories[id]
	if !exists {
		return nil, ErrStoryNotFound
	}

	return story.Clone(), nil
}

func (m *MemoryStorage) ListStories(ctx context.Context) ([]*model.Story, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stories := make([]*model.Story, 0, len(m.stories))
	for _, story := range m.stories {
		stories = append(stories, story.Clone())
	}
	sortNewestFirst(stories)

	return stories, nil
}

func (m *MemoryStorage) DeleteStory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.stories[id]; !exists {
		return ErrStoryNotFound
	}

	delete(m.stories, id)
	return nil
}
