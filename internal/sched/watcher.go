package sched

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/casehq/triage/internal/model"
)

// ImportFunc runs one scheduled import and reports its summary.
type ImportFunc func(ctx context.Context) (*model.ImportSummary, error)

// watchTimerFunc produces the channel the run loop waits on between
// firings (injectable for tests)
var watchTimerFunc = func(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Watcher fires an import on a cron schedule until its context is
// canceled. Import failures are logged and the loop keeps going; only
// cancelation stops it.
type Watcher struct {
	schedule cron.Schedule
	spec     string
	run      ImportFunc
	now      func() time.Time
}

// NewWatcher parses a standard 5-field cron expression (minute hour
// day-of-month month day-of-week) and returns a watcher that runs the
// given import at each firing.
// Examples: "*/15 * * * *" (every 15 minutes), "0 6 * * 1-5" (weekdays 6am).
func NewWatcher(spec string, run ImportFunc) (*Watcher, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	return &Watcher{
		schedule: schedule,
		spec:     spec,
		run:      run,
		now:      time.Now,
	}, nil
}

// Next returns the firing time after t.
func (w *Watcher) Next(t time.Time) time.Time {
	return w.schedule.Next(t)
}

// Run blocks until ctx is canceled, firing the import at each scheduled
// time. The first firing waits for the next scheduled slot; there is no
// immediate run on startup.
func (w *Watcher) Run(ctx context.Context) error {
	log.Printf("Watch scheduled (cron: %s)", w.spec)

	for {
		now := w.now()
		next := w.schedule.Next(now)
		wait := next.Sub(now)
		log.Printf("Next import at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Second))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-watchTimerFunc(wait):
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		summary, err := w.run(ctx)
		if err != nil {
			log.Printf("Scheduled import error: %v", err)
			continue
		}
		log.Printf("Scheduled import complete: %d rows, %d created, %d rejected",
			summary.Total, summary.Successful, summary.Failed)
	}
}
