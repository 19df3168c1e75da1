// Package runner drives the scheduler on a fixed interval.
package runner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	appLog "classlaunch/internal/log"
	"classlaunch/internal/schedule"
)

// Ticker is one evaluation of the schedule at a given instant.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (schedule.Decision, error)
}

// Runner re-evaluates a Ticker every interval until its context ends.
// Ticks never overlap: a tick that is still running when the next one is
// due causes that next one to be skipped.
type Runner struct {
	ticker   Ticker
	interval time.Duration
	now      func() time.Time
	reporter *Reporter
}

func New(t Ticker, interval time.Duration) *Runner {
	if interval < time.Second {
		interval = time.Second
	}
	return &Runner{
		ticker:   t,
		interval: interval,
		now:      time.Now,
		reporter: &Reporter{},
	}
}

// Run blocks until ctx is cancelled, then waits for the running tick.
func (r *Runner) Run(ctx context.Context) error {
	logger := cronLogger{}
	// One wrapped job for both the immediate and the scheduled ticks, so
	// they share panic recovery and the overlap guard.
	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).
		Then(cron.FuncJob(func() { r.tick(ctx) }))

	c := cron.New(cron.WithLogger(logger))
	c.Schedule(cron.Every(r.interval), job)

	appLog.Info("poll loop starting", "interval", r.interval)

	// Evaluate once immediately; cron's first run is one interval away.
	job.Run()

	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	appLog.Info("poll loop stopped")
	return nil
}

// tick runs one evaluation. Errors are contained here.
func (r *Runner) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	d, err := r.ticker.Tick(ctx, r.now())
	r.reporter.Report(d)
	if err != nil {
		if schedule.IsActionError(err) {
			appLog.Error("class open failed; not retrying today", err, "class", d.Next.Name)
			return
		}
		appLog.Error("tick failed", err)
	}
}

// cronLogger forwards cron's own messages. Routine per-run chatter is
// dropped; everything else goes to the app log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	switch msg {
	case "wake", "run", "added", "schedule":
		return
	}
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
