package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is what the scheduler fires. *Job satisfies it.
type Runner interface {
	Run(ctx context.Context) PassResult
}

// Scheduler fires a Runner on a cron expression.
//
// Overlapping firings are allowed unless skipOverlap is set, in which case a
// firing is skipped while the previous one is still running.
type Scheduler struct {
	spec        string
	runner      Runner
	skipOverlap bool
	loc         *time.Location
	logger      *slog.Logger
}

// NewScheduler validates spec (5-field cron or a descriptor such as
// "@every 2m") and returns a Scheduler.
func NewScheduler(spec string, runner Runner, skipOverlap bool, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		spec:        spec,
		runner:      runner,
		skipOverlap: skipOverlap,
		loc:         loc,
		logger:      logger,
	}, nil
}

// Start schedules the runner and blocks until ctx is cancelled, then waits
// for a running pass to finish. Intended to be called with `go`.
func (s *Scheduler) Start(ctx context.Context) error {
	clog := cronLogger{s.logger}

	wrappers := []cron.JobWrapper{cron.Recover(clog)}
	if s.skipOverlap {
		wrappers = append(wrappers, cron.SkipIfStillRunning(clog))
	}

	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(clog),
		cron.WithChain(wrappers...),
	)
	if _, err := c.AddFunc(s.spec, func() { s.runner.Run(ctx) }); err != nil {
		return fmt.Errorf("schedule expiry pass %q: %w", s.spec, err)
	}

	c.Start()
	s.logger.Info("Expiry scheduler started", "schedule", s.spec, "skip_overlap", s.skipOverlap)

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Expiry scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger. The library's chatty Info lines
// (wake, run, next) go to Debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.logger.Warn("Skipping expiry pass, previous pass still running")
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
