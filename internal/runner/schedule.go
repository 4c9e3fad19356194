package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Start runs one cycle immediately, then keeps polling and reporting health
// at the configured cadences until ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) error {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if r.cron != nil {
		return fmt.Errorf("runner already started")
	}
	sched := r.deps.Schedule
	if sched.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	logger := cronLogger{logger: r.logger.With("component", "scheduler")}
	guard := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))
	poll := guard.Then(cron.FuncJob(func() { r.RunCycle(ctx) }))

	c := cron.New(cron.WithLogger(logger))
	c.Schedule(cron.Every(sched.PollInterval), poll)
	if r.deps.Health != nil && sched.HealthInterval > 0 {
		health := guard.Then(cron.FuncJob(func() { r.deps.Health.Report(ctx) }))
		c.Schedule(cron.Every(sched.HealthInterval), health)
	}
	c.Start()
	r.cron = c
	stopped := make(chan struct{})
	r.stopped = stopped

	r.logger.Info("scheduler started",
		"poll_interval", sched.PollInterval,
		"health_interval", sched.HealthInterval,
		"source_spacing", sched.SourceSpacing,
	)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		poll.Run()
	}()
	go func() {
		select {
		case <-ctx.Done():
			r.halt(stopped)
		case <-stopped:
		}
	}()
	return nil
}

// Stop halts scheduling and waits for running jobs to return. It is safe to
// call more than once, and Start may be called again afterwards.
func (r *Runner) Stop() {
	r.halt(nil)
}

// halt stops the current run. A non-nil run only matches the Start that
// created it, so a stale ctx watcher cannot stop a later restart.
func (r *Runner) halt(run chan struct{}) {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	c, stopped := r.cron, r.stopped
	if c == nil || (run != nil && run != stopped) {
		return
	}
	r.cron, r.stopped = nil, nil
	close(stopped)
	<-c.Stop().Done()
	r.inflight.Wait()
}

// cronLogger routes cron's internal logging through slog. Scheduling chatter
// goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
