package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storycraft/internal/metrics"
	"storycraft/internal/model"
	"storycraft/pkg/logger"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrTrackerClosed      = errors.New("submission tracker is shut down")
)

// StoryCreator is the part of StoryService a submission job needs.
type StoryCreator interface {
	CreateFromRequest(ctx context.Context, req model.StoryRequest) (*model.Story, error)
}

type trackedSubmission struct {
	sub  model.Submission
	done chan struct{}
}

// SubmissionTracker runs submissions asynchronously on a bounded worker pool
// and records their pending → succeeded|failed transitions. Jobs run on the
// tracker's own context, so a client that goes away does not cancel them.
type SubmissionTracker struct {
	creator StoryCreator
	pool    *ants.Pool
	ttl     time.Duration
	now     func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.RWMutex
	subs   map[string]*trackedSubmission
	closed bool
}

func NewSubmissionTracker(creator StoryCreator, workers int, ttl time.Duration) (*SubmissionTracker, error) {
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		logger.Errorf("Submission worker panicked: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SubmissionTracker{
		creator: creator,
		pool:    pool,
		ttl:     ttl,
		now:     time.Now,
		baseCtx: ctx,
		cancel:  cancel,
		subs:    make(map[string]*trackedSubmission),
	}, nil
}

// Submit validates in synchronously and, if it is acceptable, queues the
// generation. Invalid input returns a ValidationError and creates nothing.
func (t *SubmissionTracker) Submit(in RawInput) (*model.Submission, error) {
	req, err := Normalize(in)
	if err != nil {
		return nil, err
	}

	now := t.now().UTC()
	tracked := &trackedSubmission{
		sub: model.Submission{
			ID:        uuid.New().String(),
			State:     model.SubmissionPending,
			Request:   req,
			CreatedAt: now,
			UpdatedAt: now,
		},
		done: make(chan struct{}),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTrackerClosed
	}
	t.subs[tracked.sub.ID] = tracked
	// Add under the lock so Shutdown cannot start waiting before this dispatch is counted.
	t.wg.Add(1)
	t.mu.Unlock()

	metrics.SubmissionsPending.Inc()
	logger.Infof("Submission %s queued", tracked.sub.ID)

	sub := tracked.sub
	go t.dispatch(sub.ID, req)
	return &sub, nil
}

// dispatch waits for a free worker. Only the pool bounds concurrent provider calls.
func (t *SubmissionTracker) dispatch(id string, req model.StoryRequest) {
	defer t.wg.Done()

	err := t.pool.Submit(func() {
		t.run(id, req)
	})
	if err != nil {
		logger.Errorf("Submission %s could not be scheduled: %v", id, err)
		t.finish(id, nil, fmt.Errorf("%w: %v", ErrTrackerClosed, err))
	}
}

func (t *SubmissionTracker) run(id string, req model.StoryRequest) {
	story, err := t.creator.CreateFromRequest(t.baseCtx, req)
	t.finish(id, story, err)
}

func (t *SubmissionTracker) finish(id string, story *model.Story, err error) {
	t.mu.Lock()
	tracked, ok := t.subs[id]
	if !ok || tracked.sub.State.Terminal() {
		t.mu.Unlock()
		return
	}

	tracked.sub.UpdatedAt = t.now().UTC()
	if err != nil {
		tracked.sub.State = model.SubmissionFailed
		tracked.sub.Error = model.PublicMessage(err)
		tracked.sub.ErrorKind = model.KindOf(err)
	} else {
		tracked.sub.State = model.SubmissionSucceeded
		tracked.sub.StoryID = story.ID
	}
	state := tracked.sub.State
	close(tracked.done)
	t.mu.Unlock()

	metrics.SubmissionsPending.Dec()
	metrics.SubmissionsTotal.WithLabelValues(string(state)).Inc()
	if err != nil {
		logger.Warnf("Submission %s failed: %v", id, err)
	} else {
		logger.Infof("Submission %s succeeded with story %s", id, story.ID)
	}
}

func (t *SubmissionTracker) Get(id string) (*model.Submission, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tracked, ok := t.subs[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	sub := tracked.sub
	return &sub, nil
}

// Wait blocks until the submission reaches a terminal state or ctx ends, and
// returns the latest known state either way.
func (t *SubmissionTracker) Wait(ctx context.Context, id string) (*model.Submission, error) {
	t.mu.RLock()
	tracked, ok := t.subs[id]
	t.mu.RUnlock()
	if !ok {
		return nil, ErrSubmissionNotFound
	}

	select {
	case <-tracked.done:
	case <-ctx.Done():
	}
	return t.Get(id)
}

// Expire forgets terminal submissions last updated more than ttl ago.
// Pending ones are never dropped.
func (t *SubmissionTracker) Expire() int {
	if t.ttl <= 0 {
		return 0
	}
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, tracked := range t.subs {
		if tracked.sub.State.Terminal() && tracked.sub.UpdatedAt.Before(cutoff) {
			delete(t.subs, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Debugf("Expired %d finished submissions", removed)
	}
	return removed
}

// Shutdown stops accepting submissions and waits up to timeout for running
// jobs. Jobs still running after that have their context cancelled.
func (t *SubmissionTracker) Shutdown(timeout time.Duration) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	err := t.pool.ReleaseTimeout(timeout)
	t.cancel()
	t.wg.Wait()
	if err != nil {
		return fmt.Errorf("release worker pool: %w", err)
	}
	return nil
}
