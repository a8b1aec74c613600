package crontab

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/nejstastnejsistene/cronalarm/internal/executor"
)

const (
	commandTimeout = 30 * time.Second
	lockTimeout    = 10 * time.Second
)

// Runner executes a command directly. *executor.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, c executor.Command, timeout time.Duration) (*executor.Result, error)
}

// System is the crontab installed for the current user.
type System struct {
	command  string
	lockPath string
	runner   Runner
	logger   *slog.Logger
}

// NewSystem returns a System driving the crontab binary named command.
// Edits are serialised through a file lock at lockPath.
func NewSystem(command, lockPath string, runner Runner, logger *slog.Logger) *System {
	return &System{
		command:  command,
		lockPath: lockPath,
		runner:   runner,
		logger:   logger,
	}
}

// Read returns the installed crontab. A user without a crontab gets an
// empty Tab.
func (s *System) Read(ctx context.Context) (*Tab, error) {
	c := executor.Command{Name: s.command, Args: []string{"-l"}}
	result, err := s.runner.Run(ctx, c, commandTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to read crontab: %w", err)
	}
	if !result.Success() {
		if strings.Contains(result.Stderr+result.Stdout, "no crontab for") {
			return Parse(""), nil
		}
		return nil, fmt.Errorf("failed to read crontab: %w", result.Err())
	}

	tab := Parse(result.Stdout)
	for _, invalid := range tab.Invalid() {
		s.logger.Warn("ignoring unparseable crontab line",
			"line", invalid.Number,
			"text", invalid.Text,
			"error", invalid.Err,
		)
	}
	return tab, nil
}

// Write installs tab as the user's crontab.
func (s *System) Write(ctx context.Context, tab *Tab) error {
	c := executor.Command{Name: s.command, Args: []string{"-"}, Stdin: tab.String()}
	result, err := s.runner.Run(ctx, c, commandTimeout)
	if err != nil {
		return fmt.Errorf("failed to install crontab: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("failed to install crontab: %w", result.Err())
	}
	return nil
}

// Edit reads the crontab, applies fn and installs the result if it changed,
// all while holding the lock.
func (s *System) Edit(ctx context.Context, fn func(*Tab) error) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	tab, err := s.Read(ctx)
	if err != nil {
		return err
	}
	before := tab.String()

	if err := fn(tab); err != nil {
		return err
	}

	if tab.String() == before {
		s.logger.Debug("crontab unchanged")
		return nil
	}
	if err := s.Write(ctx, tab); err != nil {
		return err
	}
	s.logger.Info("crontab updated", "entries", len(tab.Entries()))
	return nil
}

func (s *System) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	lock := flock.New(s.lockPath)
	ok, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if !ok {
		return nil, fmt.Errorf("could not acquire crontab lock %s: %w", s.lockPath, err)
	}
	return func() { lock.Close() }, nil
}
