package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"forgefit/fitness-engine/internal/config"
	"forgefit/fitness-engine/internal/domain"
	"forgefit/fitness-engine/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// blockingEngine counts runs and can hold a run open until released.
type blockingEngine struct {
	mu      sync.Mutex
	runs    int
	release chan struct{}
}

func (e *blockingEngine) RunWeekly(ctx context.Context) (*service.BatchSummary, error) {
	e.mu.Lock()
	e.runs++
	e.mu.Unlock()
	if e.release != nil {
		select {
		case <-e.release:
		case <-ctx.Done():
		}
	}
	now := time.Now()
	return &service.BatchSummary{Started: now, Finished: now}, nil
}

func (e *blockingEngine) AdaptUser(ctx context.Context, userID primitive.ObjectID) (*domain.AdaptationResult, error) {
	return &domain.AdaptationResult{UserID: userID}, nil
}

func (e *blockingEngine) runCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnStart(t *testing.T) {
	t.Parallel()
	engine := &blockingEngine{}
	s := New(engine, config.SchedulerConfig{
		CronSpec: "0 0 6 * * 1", RunOnStart: true,
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	assert.Eventually(t, func() bool { return engine.runCount() == 1 },
		time.Second, 10*time.Millisecond, "catch-up run fires at startup")
}

func TestNoRunWithoutFlag(t *testing.T) {
	t.Parallel()
	engine := &blockingEngine{}
	s := New(engine, config.SchedulerConfig{CronSpec: "0 0 6 * * 1"}, testLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, engine.runCount(), "a missed tick stays missed unless run_on_start is set")
}

func TestOverlappingRunsSkipped(t *testing.T) {
	t.Parallel()
	engine := &blockingEngine{release: make(chan struct{})}
	s := New(engine, config.SchedulerConfig{CronSpec: "0 0 6 * * 1"}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.runOnce(ctx)
	require.Eventually(t, func() bool { return engine.runCount() == 1 },
		time.Second, 10*time.Millisecond)

	// A second tick while the first run holds the lock is dropped.
	s.runOnce(ctx)
	assert.Equal(t, 1, engine.runCount())

	close(engine.release)
}

func TestBadCronSpec(t *testing.T) {
	t.Parallel()
	s := New(&blockingEngine{}, config.SchedulerConfig{CronSpec: "not a cron spec"}, testLogger())
	assert.Error(t, s.Start(context.Background()))
}
