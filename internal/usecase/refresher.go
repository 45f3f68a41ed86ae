package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"MarketTiming/internal/domain/models"
	domrepo "MarketTiming/internal/domain/repository"
	"MarketTiming/pkg/logger"
)

// ErrNotReady is returned by readers before the first successful run.
var ErrNotReady = errors.New("no snapshot computed yet")

// Runner produces snapshots.
type Runner interface {
	Run(ctx context.Context) (*models.Snapshot, error)
}

// RefreshStatus describes the refresher's recent history.
type RefreshStatus struct {
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
	Schedule    string     `json:"schedule"`
}

// Refresher runs the pipeline on a schedule and on demand, and publishes each
// new snapshot atomically. Readers never block on a run.
type Refresher struct {
	runner    Runner
	publisher domrepo.SnapshotPublisher
	schedule  string
	log       *logger.Logger

	cron       *cron.Cron
	group      singleflight.Group
	current    atomic.Pointer[models.Snapshot]
	invalidate func(context.Context) error

	// base outlives every caller and is cancelled only when Stop gives up
	// waiting for a running job.
	base       context.Context
	cancelBase context.CancelFunc

	mu          sync.RWMutex
	subs        map[int]func(*models.Snapshot)
	nextSub     int
	lastErr     error
	lastErrAt   time.Time
	lastSuccess time.Time
}

func NewRefresher(runner Runner, publisher domrepo.SnapshotPublisher, schedule string, l *logger.Logger) (*Refresher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	base, cancel := context.WithCancel(context.Background())
	return &Refresher{
		runner:     runner,
		publisher:  publisher,
		schedule:   schedule,
		log:        l,
		cron:       cron.New(),
		base:       base,
		cancelBase: cancel,
		subs:       make(map[int]func(*models.Snapshot)),
	}, nil
}

// WithInvalidator sets the hook Reload calls to drop cached source data.
func (r *Refresher) WithInvalidator(fn func(context.Context) error) *Refresher {
	r.invalidate = fn
	return r
}

// Start registers the scheduled job. When runNow is set a first run starts
// immediately in the background.
func (r *Refresher) Start(ctx context.Context, runNow bool) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		_, _ = r.Refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	r.cron.Start()
	r.log.Info("refresher started", logger.String("schedule", r.schedule))

	if runNow {
		go func() { _, _ = r.Refresh(ctx) }()
	}
	return nil
}

// Stop halts the schedule and waits for a running job to finish or ctx to end.
func (r *Refresher) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.cancelBase()
	case <-ctx.Done():
		r.cancelBase()
		return ctx.Err()
	}
	if r.publisher != nil {
		return r.publisher.Close()
	}
	return nil
}

// Refresh runs the pipeline now. Concurrent callers share one run. The run
// does not inherit the caller's cancellation, so a caller that goes away
// leaves the run to finish for the others; each caller stops waiting when
// its own ctx ends.
func (r *Refresher) Refresh(ctx context.Context) (*models.Snapshot, error) {
	ch := r.group.DoChan("refresh", func() (interface{}, error) {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(r.base, cancel)
		defer stop()
		return r.refresh(runCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			r.log.Debug("refresh joined a run in progress")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reload drops cached source tables and then refreshes, so that a manual
// refresh reads files changed within the cache TTL. A failed invalidation is
// logged and the refresh still runs.
func (r *Refresher) Reload(ctx context.Context) (*models.Snapshot, error) {
	if r.invalidate != nil {
		if err := r.invalidate(ctx); err != nil {
			r.log.Warn("source cache invalidation failed", logger.Error(err))
		}
	}
	return r.Refresh(ctx)
}

func (r *Refresher) refresh(ctx context.Context) (*models.Snapshot, error) {
	snap, err := r.runner.Run(ctx)
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.lastErrAt = time.Now()
		r.mu.Unlock()
		return nil, err
	}

	r.current.Store(snap)
	r.mu.Lock()
	r.lastSuccess = snap.GeneratedAt
	r.lastErr = nil
	subs := make([]func(*models.Snapshot), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, snap); err != nil {
			r.log.Warn("snapshot publish failed", logger.Error(err))
		}
	}
	return snap, nil
}

// Snapshot returns the latest published snapshot or ErrNotReady.
func (r *Refresher) Snapshot() (*models.Snapshot, error) {
	s := r.current.Load()
	if s == nil {
		return nil, ErrNotReady
	}
	return s, nil
}

// Subscribe registers fn to be called with every new snapshot. The returned
// function removes the subscription.
func (r *Refresher) Subscribe(fn func(*models.Snapshot)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Status reports the outcome of recent runs.
func (r *Refresher) Status() RefreshStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := RefreshStatus{Schedule: r.schedule}
	if !r.lastSuccess.IsZero() {
		t := r.lastSuccess
		st.LastSuccess = &t
	}
	if r.lastErr != nil {
		t := r.lastErrAt
		st.LastError = r.lastErr.Error()
		st.LastErrorAt = &t
	}
	return st
}
