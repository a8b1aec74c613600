// Package systemd provides integration with systemd service management.
//
// This package wraps the coreos/go-systemd library to provide:
// - sd_notify READY/STOPPING/STATUS notifications for Type=notify services
// - Watchdog pinging for WatchdogSec health monitoring
// - Graceful degradation when systemd is not available (e.g., `cronalarm daemon` in a terminal)
//
// The daemon publishes the next alarm as its STATUS, so `systemctl status`
// shows when the machine will wake next.
package systemd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/coder/quartz"
	"github.com/coreos/go-systemd/v22/daemon"
)

// HealthCheckFunc is a function that returns true if the service is healthy.
// Used by StartWatchdog to determine whether to send watchdog pings.
type HealthCheckFunc func() bool

// Notifier sends sd_notify messages. The zero value is not usable; call New.
type Notifier struct {
	logger *slog.Logger
	clock  quartz.Clock

	notify           func(state string) (bool, error)
	watchdogInterval func() (time.Duration, error)
}

// New returns a Notifier talking to the systemd notify socket.
func New(logger *slog.Logger, clock quartz.Clock) *Notifier {
	return &Notifier{
		logger: logger.With(slog.String("component", "systemd")),
		clock:  clock,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		watchdogInterval: func() (time.Duration, error) {
			return daemon.SdWatchdogEnabled(false)
		},
	}
}

// Ready sends READY=1. Safe to call when not running under systemd.
// Returns true if the notification was sent.
func (n *Notifier) Ready() bool {
	return n.send(daemon.SdNotifyReady, "ready")
}

// Stopping sends STOPPING=1 so systemd waits for the process to exit.
func (n *Notifier) Stopping() bool {
	return n.send(daemon.SdNotifyStopping, "stopping")
}

// Status publishes a one-line status shown by systemctl status.
func (n *Notifier) Status(status string) bool {
	return n.send("STATUS="+status, "status")
}

func (n *Notifier) send(state, name string) bool {
	sent, err := n.notify(state)
	if err != nil {
		n.logger.Warn("failed to send systemd notification", "notification", name, "error", err)
		return false
	}
	if sent {
		n.logger.Debug("sent systemd notification", "notification", name)
	} else {
		n.logger.Debug("systemd notification not available (not running under systemd)")
	}
	return sent
}

// StartWatchdog starts a goroutine that sends watchdog pings to systemd.
// The healthCheck function is called before each ping - if it returns false,
// the ping is skipped and systemd will eventually restart the service.
//
// The watchdog only runs when systemd provides WatchdogSec. Pings are sent
// every interval/2. The goroutine exits when ctx is cancelled; the returned
// channel is closed once it has.
func (n *Notifier) StartWatchdog(ctx context.Context, healthCheck HealthCheckFunc) <-chan struct{} {
	done := make(chan struct{})

	interval, err := n.watchdogInterval()
	if err != nil || interval == 0 {
		n.logger.Debug("watchdog not enabled", "error", err)
		close(done)
		return done
	}

	pingInterval := interval / 2
	n.logger.Info("starting systemd watchdog",
		"watchdog_interval", interval,
		"ping_interval", pingInterval,
	)

	ticker := n.clock.NewTicker(pingInterval, "systemd", "watchdog")
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				n.logger.Debug("watchdog loop stopping due to context cancellation")
				return
			case <-ticker.C:
				if !healthCheck() {
					n.logger.Warn("health check failed, skipping watchdog ping")
					continue
				}
				n.send(daemon.SdNotifyWatchdog, "watchdog")
			}
		}
	}()
	return done
}

// IsRunningUnderSystemd returns true if the process was started by systemd.
// Detected by checking for the NOTIFY_SOCKET environment variable.
func IsRunningUnderSystemd() bool {
	return os.Getenv("NOTIFY_SOCKET") != ""
}
