package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"storycraft/internal/config"
	"storycraft/internal/model"
)

// Storage owns every persisted story. Implementations must make CreateStory
// all-or-nothing and must never hand out an ID twice, even after deletion.
type Storage interface {
	// CreateStory assigns story.ID (and CreatedAt when zero) and persists it.
	CreateStory(ctx context.Context, story *model.Story) error
	GetStory(ctx context.Context, id string) (*model.Story, error)
	// ListStories returns every story, most recent first.
	ListStories(ctx context.Context) ([]*model.Story, error)
	// DeleteStory is only used by the retention sweeper.
	DeleteStory(ctx context.Context, id string) error

	Init() error
	Close() error
	Backup() error
}

// New builds the backend named by cfg.Type. The caller runs Init.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStorage(), nil
	case "disk":
		return NewDiskStorage(cfg.DataDir, cfg.CacheSize), nil
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage type %q", ErrStorageInit, cfg.Type)
	}
}

// sortNewestFirst orders by CreatedAt descending; equal timestamps fall back
// to the numeric ID so that later inserts still come first.
func sortNewestFirst(stories []*model.Story) {
	sort.SliceStable(stories, func(i, j int) bool {
		a, b := stories[i], stories[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return idNumber(a.ID) > idNumber(b.ID)
	})
}

func idNumber(id string) uint64 {
	n, _ := strconv.ParseUint(id, 10, 64)
	return n
}

func formatID(n uint64) string {
	return strconv.FormatUint(n, 10)
}
