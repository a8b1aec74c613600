package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/coder/quartz"
	"github.com/coreos/go-systemd/v22/daemon"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorder struct {
	mu     sync.Mutex
	states []string
}

func (r *recorder) notify(state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return true, nil
}

func (r *recorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

func newNotifier(t *testing.T, rec *recorder, interval time.Duration) (*Notifier, *quartz.Mock) {
	clock := quartz.NewMock(t)
	n := New(nopLogger(), clock)
	n.notify = rec.notify
	n.watchdogInterval = func() (time.Duration, error) { return interval, nil }
	return n, clock
}

func TestNotifications(t *testing.T) {
	rec := &recorder{}
	n, _ := newNotifier(t, rec, 0)
	assert.True(t, n.Ready())
	assert.True(t, n.Status("next alarm in 7 hours"))
	assert.True(t, n.Stopping())
	assert.Equal(t, []string{daemon.SdNotifyReady, "STATUS=next alarm in 7 hours", daemon.SdNotifyStopping}, rec.recorded())
}

func TestNotifyFailure(t *testing.T) {
	n, _ := newNotifier(t, &recorder{}, 0)
	n.notify = func(string) (bool, error) { return false, errors.New("socket gone") }
	assert.False(t, n.Ready())
}

func TestWatchdogDisabled(t *testing.T) {
	n, _ := newNotifier(t, &recorder{}, 0)
	done := n.StartWatchdog(context.Background(), func() bool { return true })
	_, open := <-done
	assert.False(t, open)
}

func TestWatchdogPingsWhileHealthy(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, clock := newNotifier(t, &recorder{}, 30*time.Second)
	pings := make(chan string, 10)
	n.notify = func(state string) (bool, error) {
		pings <- state
		return true, nil
	}
	var healthy atomic.Bool
	healthy.Store(true)

	trap := clock.Trap().NewTicker("systemd", "watchdog")
	defer trap.Close()

	runCtx, stop := context.WithCancel(ctx)
	done := n.StartWatchdog(runCtx, healthy.Load)
	call := trap.MustWait(ctx)
	assert.Equal(t, 15*time.Second, call.Duration)
	call.MustRelease(ctx)

	clock.Advance(15 * time.Second).MustWait(ctx)
	select {
	case state := <-pings:
		assert.Equal(t, daemon.SdNotifyWatchdog, state)
	case <-ctx.Done():
		t.Fatal("no watchdog ping")
	}

	healthy.Store(false)
	clock.Advance(15 * time.Second).MustWait(ctx)

	stop()
	<-done
	assert.Equal(t, 0, len(pings))
}
