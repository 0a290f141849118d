package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSweeper struct {
	calls     atomic.Int64
	activated int64
	completed int64
	err       error
}

func (m *mockSweeper) SweepStatuses(ctx context.Context) (int64, int64, error) {
	m.calls.Add(1)
	return m.activated, m.completed, m.err
}

type mockGenerator struct {
	calls   atomic.Int64
	created int
	err     error
}

func (m *mockGenerator) GenerateDueApprovals(ctx context.Context) (int, error) {
	m.calls.Add(1)
	return m.created, m.err
}

func TestTickRunsSweepAndGenerator(t *testing.T) {
	sweeper := &mockSweeper{activated: 2, completed: 3}
	generator := &mockGenerator{created: 1}
	svc := NewSchedulerService(sweeper, generator, time.Minute, nil, zap.NewNop())

	svc.Tick(context.Background())

	assert.Equal(t, int64(1), sweeper.calls.Load())
	assert.Equal(t, int64(1), generator.calls.Load())
}

func TestTickContinuesPastSweepError(t *testing.T) {
	sweeper := &mockSweeper{err: errors.New("db down")}
	generator := &mockGenerator{}
	svc := NewSchedulerService(sweeper, generator, time.Minute, nil, zap.NewNop())

	// A sweep failure must not stop approval generation.
	svc.Tick(context.Background())
	assert.Equal(t, int64(1), generator.calls.Load())
}

func TestStartTicksImmediately(t *testing.T) {
	sweeper := &mockSweeper{}
	generator := &mockGenerator{}
	svc := NewSchedulerService(sweeper, generator, time.Hour, nil, zap.NewNop())

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 1 && generator.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	svc := NewSchedulerService(&mockSweeper{}, &mockGenerator{}, time.Hour, nil, zap.NewNop())
	svc.Start(context.Background())

	svc.Stop()
	svc.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	svc := NewSchedulerService(&mockSweeper{}, &mockGenerator{}, time.Hour, nil, zap.NewNop())
	svc.Stop()
}

func TestStopBeforeStartThenRestart(t *testing.T) {
	sweeper := &mockSweeper{}
	svc := NewSchedulerService(sweeper, &mockGenerator{}, time.Hour, nil, zap.NewNop())

	// A premature Stop must not poison later starts.
	svc.Stop()
	svc.Start(context.Background())
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	svc.Stop()

	// The scheduler can run again after a full stop.
	svc.Start(context.Background())
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 10*time.Millisecond)
	svc.Stop()
}

func TestStartTwiceRunsOneLoop(t *testing.T) {
	sweeper := &mockSweeper{}
	generator := &mockGenerator{}
	svc := NewSchedulerService(sweeper, generator, time.Hour, nil, zap.NewNop())

	svc.Start(context.Background())
	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	// Only the first Start spawned a loop, so exactly one startup tick ran.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), sweeper.calls.Load())
}
