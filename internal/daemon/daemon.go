// Package daemon keeps the wake alarm armed across suspends, clock changes
// and manual crontab edits by re-running the alarm update on a schedule.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts standard 5-field cron plus descriptors such as
// "@every 5m" and "@hourly".
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Updater re-applies the stored alarms. *alarm.Service satisfies it.
type Updater interface {
	Update(ctx context.Context) error
	NextAlarm() *time.Time
	Synced() bool
}

// UpdateFunc observes the outcome of each resync.
type UpdateFunc func(next *time.Time, synced bool, err error)

// Daemon runs the resync loop.
type Daemon struct {
	updater  Updater
	schedule cron.Schedule
	runner   *cron.Cron
	logger   *slog.Logger

	healthy  atomic.Bool
	mu       sync.Mutex
	onUpdate []UpdateFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Daemon that calls u.Update on spec, in robfig/cron syntax.
func New(u Updater, spec string, logger *slog.Logger) (*Daemon, error) {
	schedule, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid resync schedule %q: %w", spec, err)
	}

	logger = logger.With(slog.String("component", "daemon"))
	runnerLog := cronLogger{logger}
	return &Daemon{
		updater:  u,
		schedule: schedule,
		runner: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithLogger(runnerLog),
			cron.WithChain(cron.SkipIfStillRunning(runnerLog)),
		),
		logger: logger,
	}, nil
}

// OnUpdate registers fn to run after every resync.
func (d *Daemon) OnUpdate(fn UpdateFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onUpdate = append(d.onUpdate, fn)
}

// Start runs one resync immediately, then starts the schedule. The first
// resync's error is returned but does not prevent the loop from starting.
func (d *Daemon) Start(ctx context.Context) error {
	d.ctx, d.cancel = context.WithCancel(ctx)

	err := d.resync()
	d.runner.Schedule(d.schedule, cron.FuncJob(func() { d.resync() }))
	d.runner.Start()

	d.logger.Info("daemon started", slog.Time("next_resync", d.schedule.Next(time.Now())))
	return err
}

func (d *Daemon) resync() error {
	start := time.Now()
	err := d.updater.Update(d.ctx)
	d.healthy.Store(err == nil)

	next, synced := d.updater.NextAlarm(), d.updater.Synced()
	if err != nil {
		d.logger.Error("resync failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
	} else {
		d.logger.Info("resync complete",
			slog.Any("next_alarm", next),
			slog.Bool("synced", synced),
			slog.Duration("duration", time.Since(start)),
		)
	}

	d.mu.Lock()
	hooks := append([]UpdateFunc(nil), d.onUpdate...)
	d.mu.Unlock()
	for _, fn := range hooks {
		fn(next, synced, err)
	}
	return err
}

// IsHealthy reports whether the last resync succeeded.
func (d *Daemon) IsHealthy() bool {
	return d.healthy.Load()
}

// Shutdown stops the schedule and waits for a running resync to finish.
func (d *Daemon) Shutdown(ctx context.Context) error {
	if d.cancel == nil {
		return nil
	}
	stopped := d.runner.Stop()
	select {
	case <-stopped.Done():
		d.cancel()
		d.logger.Info("daemon stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}

// cronLogger routes robfig/cron's logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
