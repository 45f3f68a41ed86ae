package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/config"
	"MarketTiming/pkg/logger"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeScheduler struct {
	rec      *recorder
	runNow   bool
	startErr error
	fn       func(*models.Snapshot)
}

func (f *fakeScheduler) Start(_ context.Context, runNow bool) error {
	f.rec.add("scheduler.start")
	f.runNow = runNow
	return f.startErr
}

func (f *fakeScheduler) Stop(context.Context) error {
	f.rec.add("scheduler.stop")
	return nil
}

func (f *fakeScheduler) Subscribe(fn func(*models.Snapshot)) func() {
	f.rec.add("subscribe")
	f.fn = fn
	return func() { f.rec.add("unsubscribe") }
}

type fakeHub struct {
	rec  *recorder
	seen []*models.Snapshot
}

func (f *fakeHub) Broadcast(s *models.Snapshot) { f.seen = append(f.seen, s) }
func (f *fakeHub) Close()                       { f.rec.add("hub.close") }

type fakeServer struct{ rec *recorder }

func (f *fakeServer) Start() error {
	f.rec.add("http.start")
	return nil
}

func (f *fakeServer) Stop(context.Context) error {
	f.rec.add("http.stop")
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Pipeline.RunOnStart = true
	return cfg
}

func TestAppLifecycle(t *testing.T) {
	rec := &recorder{}
	sched := &fakeScheduler{rec: rec}
	hub := &fakeHub{rec: rec}
	app := New(testConfig(t), sched, hub, &fakeServer{rec: rec}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(rec.list()) >= 3
	}, time.Second, 5*time.Millisecond)

	snap := &models.Snapshot{}
	sched.fn(snap)
	assert.Equal(t, []*models.Snapshot{snap}, hub.seen)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.True(t, sched.runNow)
	assert.Equal(t, []string{
		"subscribe", "scheduler.start", "http.start",
		"http.stop", "hub.close", "scheduler.stop", "unsubscribe",
	}, rec.list())
}

func TestAppSchedulerStartFailure(t *testing.T) {
	rec := &recorder{}
	sched := &fakeScheduler{rec: rec, startErr: errors.New("bad cron")}
	app := New(testConfig(t), sched, &fakeHub{rec: rec}, &fakeServer{rec: rec}, logger.Nop())

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad cron")
	assert.NotContains(t, rec.list(), "http.start")
}
