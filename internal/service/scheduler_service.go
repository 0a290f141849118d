package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type lessonSweeper interface {
	SweepStatuses(ctx context.Context) (activated, completed int64, err error)
}

type approvalGenerator interface {
	GenerateDueApprovals(ctx context.Context) (int, error)
}

// SchedulerService drives the periodic background work: the lesson status
// sweep and the payroll approval generator. One tick runs both, sweep first
// so freshly completed lessons are visible to the generator.
type SchedulerService struct {
	lessons  lessonSweeper
	earnings approvalGenerator
	interval time.Duration
	metrics  *MetricsService
	logger   *zap.Logger

	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSchedulerService constructs a SchedulerService.
func NewSchedulerService(lessons lessonSweeper, earnings approvalGenerator, interval time.Duration, metrics *MetricsService, logger *zap.Logger) *SchedulerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SchedulerService{
		lessons:  lessons,
		earnings: earnings,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start launches the ticker loop. An immediate tick runs on startup so a
// restarted process catches up without waiting a full interval.
func (s *SchedulerService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.loop(ctx, done)
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
}

// Stop halts the ticker and waits for an in-flight tick to finish. Calling it
// without a running loop, or more than once, is a no-op.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("scheduler stopped")
}

func (s *SchedulerService) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduler pass. Errors are logged, never fatal; the next
// tick retries because both underlying operations are idempotent.
func (s *SchedulerService) Tick(ctx context.Context) {
	started := time.Now()

	activated, completed, err := s.lessons.SweepStatuses(ctx)
	if err != nil {
		s.logger.Error("lesson status sweep failed", zap.Error(err))
	}

	created, err := s.earnings.GenerateDueApprovals(ctx)
	if err != nil {
		s.logger.Error("approval generation failed", zap.Error(err))
	}

	s.metrics.ObserveSchedulerTick(time.Since(started), activated, completed, created)
	s.logger.Debug("scheduler tick",
		zap.Int64("lessons_activated", activated),
		zap.Int64("lessons_completed", completed),
		zap.Int("approvals_created", created),
		zap.Duration("took", time.Since(started)))
}
