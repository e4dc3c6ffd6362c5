// Package scheduler runs periodic refresh jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job func(ctx context.Context)

type Scheduler struct {
	Cron   *cron.Cron
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	jobs   map[string]cron.EntryID
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

// NewScheduler creates a scheduler whose jobs receive a context that is
// cancelled on Stop. A job that is still running when its next run is due is
// skipped for that run.
func NewScheduler(ctx context.Context, l *zap.Logger) *Scheduler {
	cl := cronLogger{l: l.Sugar()}
	jobCtx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		Cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: l,
		ctx:    jobCtx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Register adds a named job. spec is a standard five-field cron expression or
// a descriptor such as "@every 5m".
func (s *Scheduler) Register(name string, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job '%s' is already registered", name)
	}
	id, err := s.Cron.AddFunc(spec, func() {
		s.logger.Sugar().Debugw("Running scheduled job", zap.String("job", name))
		job(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("register job '%s': %w", name, err)
	}
	s.jobs[name] = id
	return nil
}

// RunNow runs a registered job synchronously.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job '%s' is not registered", name)
	}
	s.Cron.Entry(id).WrappedJob.Run()
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Sugar().Infow("Scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.Cron.Stop().Done()
	s.logger.Sugar().Infow("Scheduler stopped")
}
