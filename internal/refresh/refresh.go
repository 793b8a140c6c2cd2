// Package refresh re-optimizes the schedule on a cron spec so that the
// planning window follows the wall clock.
package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "plancal/internal/log"
	"plancal/internal/planner"
)

// Optimizer is the part of the scheduler the runner drives.
type Optimizer interface {
	Optimize() planner.Report
}

// parser accepts both 5-field and 6-field (with seconds) specs as well as
// descriptors such as "@daily" and "@every 1h".
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Runner owns one cron instance with a single optimize job.
type Runner struct {
	spec     string
	loc      *time.Location
	schedule cron.Schedule
	target   Optimizer

	mu sync.Mutex
	c  *cron.Cron
}

// New validates spec. A nil loc means time.Local.
func New(spec string, loc *time.Location, target Optimizer) (*Runner, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("refresh: schedule required")
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("refresh: parse %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Runner{spec: spec, loc: loc, schedule: sched, target: target}, nil
}

// Next returns the first activation strictly after t.
func (r *Runner) Next(t time.Time) time.Time {
	return r.schedule.Next(t.In(r.loc))
}

// RunNow optimizes immediately, outside the cron schedule.
func (r *Runner) RunNow() planner.Report {
	start := time.Now()
	rep := r.target.Optimize()
	appLog.Info("schedule refreshed",
		"blocks", rep.Blocks,
		"shortfalls", len(rep.Shortfalls),
		"conflicts", len(rep.Conflicts),
		"took", time.Since(start),
	)
	return rep
}

// Start begins triggering. Calling Start twice is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.c != nil {
		return
	}

	lg := cronLogger{}
	r.c = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(r.loc),
		cron.WithLogger(lg),
		cron.WithChain(cron.Recover(lg), cron.SkipIfStillRunning(lg)),
	)
	r.c.Schedule(r.schedule, cron.FuncJob(func() { r.RunNow() }))
	r.c.Start()
	appLog.Info("refresh started", "spec", r.spec, "tz", r.loc.String(), "next", r.Next(time.Now()))
}

// Stop halts triggering and waits for a running job, or for ctx.
func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.c
	r.c = nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	appLog.Info("refresh stopped")
}

// cronLogger routes cron's own messages into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}
