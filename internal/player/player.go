// Package player sounds an alarm by running the configured play commands.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/quartz"
	"github.com/kballard/go-shellquote"

	"github.com/nejstastnejsistene/cronalarm/internal/executor"
	"github.com/nejstastnejsistene/cronalarm/internal/store"
)

// ErrNoCommands is returned by Play when no play commands are configured.
var ErrNoCommands = errors.New("no play commands configured")

// Runner runs a shell command line. *executor.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (*executor.Result, error)
}

// History records plays. *store.Store satisfies it.
type History interface {
	AddPlay(p store.Play) error
}

// Player runs play commands in order.
type Player struct {
	commands []string
	timeout  time.Duration
	runner   Runner
	history  History
	clock    quartz.Clock
	logger   *slog.Logger
}

// New returns a Player. history may be nil.
func New(commands []string, timeout time.Duration, runner Runner, history History, clock quartz.Clock, logger *slog.Logger) *Player {
	return &Player{
		commands: commands,
		timeout:  timeout,
		runner:   runner,
		history:  history,
		clock:    clock,
		logger:   logger.With(slog.String("component", "player")),
	}
}

// CommandLine appends options to command, quoted for /bin/sh.
func CommandLine(command string, options []string) string {
	if len(options) == 0 {
		return command
	}
	return command + " " + shellquote.Join(options...)
}

// Play runs every command with options appended. A failing command does not
// stop the ones after it; all failures are joined in the returned error.
func (p *Player) Play(ctx context.Context, options []string) error {
	if len(p.commands) == 0 {
		return ErrNoCommands
	}

	start := p.clock.Now()
	p.logger.Info("playing alarm", slog.Any("options", options))

	var errs []error
	for _, command := range p.commands {
		line := CommandLine(command, options)
		result, err := p.runner.Execute(ctx, line, p.timeout)
		if err == nil {
			err = result.Err()
		}
		if err != nil {
			p.logger.Error("play command failed",
				slog.String("command", line),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", line, err))
			continue
		}
		p.logger.Info("play command finished",
			slog.String("command", line),
			slog.Any("result", result),
		)
	}

	if p.history != nil {
		play := store.Play{
			At:       start,
			Options:  options,
			Failures: len(errs),
			Duration: p.clock.Since(start),
		}
		if err := p.history.AddPlay(play); err != nil {
			p.logger.Warn("failed to record play", slog.String("error", err.Error()))
		}
	}

	return errors.Join(errs...)
}
