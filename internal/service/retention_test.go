package service

import (
	"context"
	"testing"
	"time"

	"storycraft/internal/config"
	"storycraft/internal/model"
	"storycraft/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStories(t *testing.T, store storage.Storage, createdAt ...time.Time) {
	t.Helper()
	for _, ts := range createdAt {
		s := &model.Story{Prompt: "p", Content: "c", Genre: model.GenreGeneral, Length: model.LengthShort, CreatedAt: ts}
		require.NoError(t, store.CreateStory(context.Background(), s))
	}
}

func storyIDs(t *testing.T, store storage.Storage) []string {
	t.Helper()
	stories, err := store.ListStories(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(stories))
	for _, s := range stories {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestPruneStoriesByAge(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStorage()
	seedStories(t, store,
		now.Add(-48*time.Hour),
		now.Add(-2*time.Hour),
		now.Add(-30*time.Hour),
		now.Add(-time.Minute),
	)

	n, err := PruneStories(context.Background(), store, RetentionPolicy{MaxAge: 24 * time.Hour}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"4", "2"}, storyIDs(t, store))
}

func TestPruneStoriesByCount(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStorage()
	seedStories(t, store,
		now.Add(-3*time.Hour),
		now.Add(-2*time.Hour),
		now.Add(-time.Hour),
	)

	n, err := PruneStories(context.Background(), store, RetentionPolicy{MaxStories: 2}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"3", "2"}, storyIDs(t, store))
}

func TestPruneStoriesUnbounded(t *testing.T) {
	now := time.Now()
	store := storage.NewMemoryStorage()
	seedStories(t, store, now.Add(-1000*time.Hour), now)

	n, err := PruneStories(context.Background(), store, RetentionPolicy{}, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, storyIDs(t, store), 2)
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	cfg := &config.Config{
		Retention: config.RetentionConfig{Enabled: true, Schedule: "every now and then", MaxStories: 10},
	}
	_, err := NewScheduler(cfg, storage.NewMemoryStorage(), nil)
	assert.Error(t, err)

	cfg.Retention.Schedule = "@every 1h"
	cfg.Storage.BackupSchedule = "@daily"
	s, err := NewScheduler(cfg, storage.NewMemoryStorage(), nil)
	require.NoError(t, err)
	s.Start()
	s.Stop(context.Background())
}
