package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"storycraft/internal/model"
	"storycraft/pkg/logger"
)

// DiskStorage keeps one JSON file per story under dataDir/stories and an
// index (stories.json) that is the source of truth for which stories exist.
// A story becomes visible only once the index naming it has been renamed into
// place, so readers never see a half-written record.
type DiskStorage struct {
	dataDir   string
	mu        sync.RWMutex
	index     *storyIndex
	cache     map[string]*model.Story
	cacheSize int
	now       func() time.Time
}

type storyIndex struct {
	NextID  uint64        `json:"next_id"`
	Stories []*StoryIndex `json:"stories"`
}

type StoryIndex struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Genre     model.Genre  `json:"genre"`
	Length    model.Length `json:"length"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewDiskStorage(dataDir string, cacheSize int) *DiskStorage {
	if cacheSize <= 0 {
		cacheSize = 100
	}
	return &DiskStorage{
		dataDir:   dataDir,
		cache:     make(map[string]*model.Story),
		cacheSize: cacheSize,
		now:       time.Now,
	}
}

func (d *DiskStorage) Init() error {
	if err := d.createDirectories(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	if err := d.loadIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("Disk storage initialized at %s with %d stories", d.dataDir, len(d.index.Stories))
	return nil
}

func (d *DiskStorage) createDirectories() error {
	dirs := []string{
		d.dataDir,
		filepath.Join(d.dataDir, "stories"),
		filepath.Join(d.dataDir, "backup"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

func (d *DiskStorage) indexPath() string {
	return filepath.Join(d.dataDir, "stories.json")
}

func (d *DiskStorage) storyPath(id string) string {
	return filepath.Join(d.dataDir, "stories", id+".json")
}

func (d *DiskStorage) loadIndex() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := os.Stat(d.indexPath()); os.IsNotExist(err) {
		d.index = &storyIndex{NextID: 1, Stories: []*StoryIndex{}}
		return d.saveIndex(d.index)
	}

	data, err := os.ReadFile(d.indexPath())
	if err != nil {
		return err
	}

	var idx storyIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	// never hand out an id at or below one already on disk
	for _, entry := range idx.Stories {
		if n := idNumber(entry.ID); n >= idx.NextID {
			idx.NextID = n + 1
		}
	}
	if idx.NextID == 0 {
		idx.NextID = 1
	}

	d.index = &idx
	return nil
}

func (d *DiskStorage) saveIndex(idx *storyIndex) error {
	return writeFileAtomic(d.indexPath(), idx)
}

func (d *DiskStorage) loadStoryFromFile(id string) (*model.Story, error) {
	data, err := os.ReadFile(d.storyPath(id))
	if err != nil {
		return nil, err
	}

	var story model.Story
	if err := json.Unmarshal(data, &story); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	return &story, nil
}

// writeFileAtomic writes v as JSON to a temp file and renames it over path.
func writeFileAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

func (d *DiskStorage) CreateStory(ctx context.Context, story *model.Story) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := formatID(d.index.NextID)
	record := story.Clone()
	record.ID = id
	if record.CreatedAt.IsZero() {
		record.CreatedAt = d.now().UTC()
	}

	if err := writeFileAtomic(d.storyPath(id), record); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	next := &storyIndex{
		NextID:  d.index.NextID + 1,
		Stories: append(append([]*StoryIndex{}, d.index.Stories...), indexEntry(record)),
	}
	if err := d.saveIndex(next); err != nil {
		// the story file is not referenced by any index; drop it
		os.Remove(d.storyPath(id))
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.index = next
	d.cache[id] = record
	d.evictCache()

	story.ID = record.ID
	story.CreatedAt = record.CreatedAt
	return nil
}

func indexEntry(s *model.Story) *StoryIndex {
	return &StoryIndex{
		ID:        s.ID,
		Title:     s.Title,
		Genre:     s.Genre,
		Length:    s.Length,
		CreatedAt: s.CreatedAt,
	}
}

func (d *DiskStorage) GetStory(ctx context.Context, id string) (*model.Story, error) {
	d.mu.RLock()
	if story, exists := d.cache[id]; exists {
		d.mu.RUnlock()
		return story.Clone(), nil
	}
	known := d.indexed(id)
	d.mu.RUnlock()

	if !known {
		return nil, ErrStoryNotFound
	}

	story, err := d.loadStoryFromFile(id)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.mu.Lock()
	if d.indexed(id) {
		d.cache[id] = story
		d.evictCache()
	}
	d.mu.Unlock()

	return story.Clone(), nil
}

// indexed must be called with d.mu held.
func (d *DiskStorage) indexed(id string) bool {
	for _, entry := range d.index.Stories {
		if entry.ID == id {
			return true
		}
	}
	return false
}

func (d *DiskStorage) ListStories(ctx context.Context) ([]*model.Story, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stories := make([]*model.Story, 0, len(d.index.Stories))
	for _, entry := range d.index.Stories {
		story, exists := d.cache[entry.ID]
		if !exists {
			var err error
			story, err = d.loadStoryFromFile(entry.ID)
			if err != nil {
				logger.Errorf("Failed to load story %s: %v", entry.ID, err)
				continue
			}
		}
		stories = append(stories, story.Clone())
	}

	sortNewestFirst(stories)
	return stories, nil
}

func (d *DiskStorage) DeleteStory(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.indexed(id) {
		return ErrStoryNotFound
	}

	next := &storyIndex{NextID: d.index.NextID, Stories: make([]*StoryIndex, 0, len(d.index.Stories))}
	for _, entry := range d.index.Stories {
		if entry.ID != id {
			next.Stories = append(next.Stories, entry)
		}
	}
	if err := d.saveIndex(next); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	d.index = next
	delete(d.cache, id)

	if err := os.Remove(d.storyPath(id)); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Story %s removed from index but its file remains: %v", id, err)
	}
	return nil
}

func (d *DiskStorage) evictCache() {
	if len(d.cache) <= d.cacheSize {
		return
	}

	type cacheEntry struct {
		id        string
		createdAt time.Time
	}

	entries := make([]cacheEntry, 0, len(d.cache))
	for id, story := range d.cache {
		entries = append(entries, cacheEntry{id: id, createdAt: story.CreatedAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].createdAt.Before(entries[j].createdAt)
	})

	toEvict := len(d.cache) - d.cacheSize
	for i := 0; i < toEvict; i++ {
		delete(d.cache, entries[i].id)
	}
}

func (d *DiskStorage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cache = make(map[string]*model.Story)
	return nil
}

// Backup copies the index and every story file into backup/backup_<unix>.
func (d *DiskStorage) Backup() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	backupDir := filepath.Join(d.dataDir, "backup", fmt.Sprintf("backup_%d", d.now().Unix()))
	dstStories := filepath.Join(backupDir, "stories")

	if err := os.MkdirAll(dstStories, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	for _, entry := range d.index.Stories {
		if err := copyFile(d.storyPath(entry.ID), filepath.Join(dstStories, entry.ID+".json")); err != nil {
			return fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
	}

	if err := copyFile(d.indexPath(), filepath.Join(backupDir, "stories.json")); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	logger.Infof("Backup completed: %s", backupDir)
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0644)
}
