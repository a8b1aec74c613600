package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coder/quartz"
	"github.com/spf13/afero"

	"github.com/nejstastnejsistene/cronalarm/internal/alarm"
	"github.com/nejstastnejsistene/cronalarm/internal/config"
	"github.com/nejstastnejsistene/cronalarm/internal/crontab"
	"github.com/nejstastnejsistene/cronalarm/internal/executor"
	"github.com/nejstastnejsistene/cronalarm/internal/helper"
	"github.com/nejstastnejsistene/cronalarm/internal/logging"
	"github.com/nejstastnejsistene/cronalarm/internal/player"
	"github.com/nejstastnejsistene/cronalarm/internal/rtc"
	"github.com/nejstastnejsistene/cronalarm/internal/store"
)

// app wires the alarm service to the real system.
type app struct {
	cfg     *config.Config
	clock   quartz.Clock
	store   *store.Store
	service *alarm.Service
	player  *player.Player
	logger  *slog.Logger
}

// openApp opens the entries store and builds the alarm service. When update
// is set it also re-applies the stored alarms.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, update bool) (*app, error) {
	st, err := store.Open(cfg.EntriesPath())
	if err != nil {
		return nil, err
	}

	exec := executor.New()
	clock := quartz.NewReal()
	fs := afero.NewOsFs()

	var programmer rtc.Programmer = rtc.NewSysfs(fs, cfg.RTCDevice)
	if cfg.UseHelper() {
		programmer = helper.NewClient(cfg.HelperSocket)
	}

	tab := crontab.NewSystem(cfg.CrontabCommand, cfg.LockPath(), exec,
		logging.WithComponent(logger, "crontab"))
	wake := rtc.New(fs, cfg.WakeupOffsetDuration(), programmer)

	a := &app{
		cfg:     cfg,
		clock:   clock,
		store:   st,
		service: alarm.New(cfg.Program, st, tab, wake, clock, logger),
		player:  player.New(cfg.PlayCommands, cfg.PlayTimeoutDuration(), exec, st, clock, logger),
		logger:  logger,
	}

	if update {
		if err := a.service.Update(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to update alarms: %w", err)
		}
	}
	return a, nil
}

// Close releases the entries store.
func (a *app) Close() error {
	return a.store.Close()
}
