package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storycraft/internal/config"
	"storycraft/internal/metrics"
	"storycraft/internal/storage"
	"storycraft/pkg/logger"

	"github.com/robfig/cron/v3"
)

// RetentionPolicy bounds the story library. Zero fields impose no bound.
type RetentionPolicy struct {
	MaxAge     time.Duration
	MaxStories int
}

func (p RetentionPolicy) Unbounded() bool {
	return p.MaxAge <= 0 && p.MaxStories <= 0
}

// PruneStories deletes stories created before now-MaxAge and then the oldest
// stories beyond MaxStories. It returns how many were deleted.
func PruneStories(ctx context.Context, store storage.Storage, policy RetentionPolicy, now time.Time) (int, error) {
	if policy.Unbounded() {
		return 0, nil
	}

	stories, err := store.ListStories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stories: %w", err)
	}

	// stories is newest first, so everything from keep onwards goes
	keep := len(stories)
	if policy.MaxStories > 0 && keep > policy.MaxStories {
		keep = policy.MaxStories
	}
	if policy.MaxAge > 0 {
		cutoff := now.Add(-policy.MaxAge)
		for i := 0; i < keep; i++ {
			if stories[i].CreatedAt.Before(cutoff) {
				keep = i
				break
			}
		}
	}

	deleted := 0
	for _, story := range stories[keep:] {
		if err := store.DeleteStory(ctx, story.ID); err != nil {
			if errors.Is(err, storage.ErrStoryNotFound) {
				continue
			}
			return deleted, fmt.Errorf("delete story %s: %w", story.ID, err)
		}
		deleted++
	}

	if deleted > 0 {
		metrics.StoriesPrunedTotal.Add(float64(deleted))
		logger.Infof("Retention removed %d stories", deleted)
	}
	return deleted, nil
}

// Scheduler runs the periodic housekeeping jobs: retention, submission
// expiry and store backups.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(cfg *config.Config, store storage.Storage, tracker *SubmissionTracker) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{})), cron.WithLogger(cronLogger{}))

	if cfg.Retention.Enabled {
		policy := RetentionPolicy{MaxAge: cfg.Retention.MaxAge, MaxStories: cfg.Retention.MaxStories}
		if _, err := c.AddFunc(cfg.Retention.Schedule, func() {
			if _, err := PruneStories(context.Background(), store, policy, time.Now()); err != nil {
				logger.Errorf("Retention sweep failed: %v", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("invalid retention.schedule %q: %w", cfg.Retention.Schedule, err)
		}
		logger.Infof("Retention enabled: max_age=%s max_stories=%d", policy.MaxAge, policy.MaxStories)
	}

	if tracker != nil && cfg.Submissions.TTL > 0 {
		if _, err := c.AddFunc("@every 1m", func() { tracker.Expire() }); err != nil {
			return nil, err
		}
	}

	if cfg.Storage.BackupSchedule != "" {
		if _, err := c.AddFunc(cfg.Storage.BackupSchedule, func() {
			if err := store.Backup(); err != nil {
				logger.Errorf("Backup failed: %v", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("invalid storage.backup_schedule %q: %w", cfg.Storage.BackupSchedule, err)
		}
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs or ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger routes cron's own logging through the service logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}
