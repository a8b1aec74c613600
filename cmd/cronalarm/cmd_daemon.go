package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/quartz"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nejstastnejsistene/cronalarm/internal/alarm"
	"github.com/nejstastnejsistene/cronalarm/internal/config"
	"github.com/nejstastnejsistene/cronalarm/internal/daemon"
	"github.com/nejstastnejsistene/cronalarm/internal/shutdown"
	"github.com/nejstastnejsistene/cronalarm/internal/systemd"
)

const shutdownTimeout = 30 * time.Second

type daemonCmd struct{}

func (c *daemonCmd) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, logFile *lumberjack.Logger) error {
	r := &resyncer{cfg: cfg, logger: logger}
	d, err := daemon.New(r, cfg.ResyncSchedule, logger)
	if err != nil {
		return err
	}

	notifier := systemd.New(logger, quartz.NewReal())
	d.OnUpdate(func(next *time.Time, synced bool, err error) {
		status := alarm.Message(next, time.Now())
		if err != nil {
			status = "resync failed: " + err.Error()
		} else if !synced {
			status += " (wakealarm not synchronized)"
		}
		notifier.Status(status)
	})

	coord := shutdown.NewCoordinator(logger)
	coord.Register("log", shutdown.Closer(logFile))
	coord.Register("resync", d)

	if err := d.Start(ctx); err != nil {
		logger.Warn("initial resync failed, will retry on schedule", slog.String("error", err.Error()))
	}
	notifier.Ready()

	watchdogCtx, stopWatchdog := context.WithCancel(context.Background())
	watchdogDone := notifier.StartWatchdog(watchdogCtx, d.IsHealthy)
	coord.Register("watchdog", shutdown.Func(func(ctx context.Context) error {
		stopWatchdog()
		select {
		case <-watchdogDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	<-ctx.Done()
	logger.Info("shutting down")
	notifier.Stopping()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return coord.Shutdown(shutdownCtx)
}

// resyncer opens the entries store only for the length of an update, so
// the CLI can use it between resyncs.
type resyncer struct {
	cfg    *config.Config
	logger *slog.Logger

	mu     sync.Mutex
	next   *time.Time
	synced bool
}

func (r *resyncer) Update(ctx context.Context) error {
	a, err := openApp(ctx, r.cfg, r.logger, true)
	if err != nil {
		r.mu.Lock()
		r.synced = false
		r.mu.Unlock()
		return err
	}
	defer a.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next, r.synced = a.service.NextAlarm(), a.service.Synced()
	return nil
}

func (r *resyncer) NextAlarm() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

func (r *resyncer) Synced() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.synced
}
