package scheduler

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the sync on a cron schedule for daemon mode.
type Scheduler struct {
	Cron         *cron.Cron
	Orchestrator *Orchestrator
	// OnReport, when set, receives every finished run.
	OnReport func(Report)
	Ctx      context.Context

	running sync.Mutex
	mu      sync.Mutex
	last    *Report
	logger  *zap.Logger
}

// NewScheduler creates a new Scheduler. The cron spec includes a seconds field.
func NewScheduler(ctx context.Context, orch *Orchestrator, onReport func(Report), logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{logger.Sugar()})),
		Orchestrator: orch,
		OnReport:     onReport,
		Ctx:          ctx,
		logger:       logger,
	}
}

// Register adds the sync job under spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.syncTask); err != nil {
		return errors.Wrapf(err, "register sync task %q", spec)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow executes one sync immediately (for manual trigger / RUN_ON_START).
// It reports false when a sync was already running.
func (s *Scheduler) RunNow() (Report, bool) {
	if !s.running.TryLock() {
		s.logger.Warn("sync already running, skipping")
		return Report{}, false
	}
	defer s.running.Unlock()

	report := s.Orchestrator.Run(s.Ctx)
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	if s.OnReport != nil {
		s.OnReport(report)
	}
	return report, true
}

// LastReport returns the most recent finished run, if any.
func (s *Scheduler) LastReport() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

func (s *Scheduler) syncTask() {
	s.RunNow()
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
