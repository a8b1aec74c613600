// result.go defines the command execution result structure.
// It captures all output from command execution including stdout, stderr,
// exit code, duration, and timeout status for logging.
package executor

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Result holds the output of a command execution.
type Result struct {
	// ExitCode is the process exit code. -1 indicates timeout or signal death.
	ExitCode int

	// Stdout contains the standard output of the command.
	Stdout string

	// Stderr contains the standard error output of the command.
	Stderr string

	// Duration is how long the command took to execute.
	Duration time.Duration

	// TimedOut is true if the command was killed due to timeout.
	TimedOut bool

	// StartedAt is when execution began.
	StartedAt time.Time
}

// Success reports whether the command exited zero within its timeout.
func (r *Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Err converts an unsuccessful result into an error carrying stderr.
func (r *Result) Err() error {
	switch {
	case r.TimedOut:
		return fmt.Errorf("timed out after %s", r.Duration.Round(time.Millisecond))
	case r.ExitCode != 0:
		if msg := strings.TrimSpace(r.Stderr); msg != "" {
			return fmt.Errorf("exit status %d: %s", r.ExitCode, msg)
		}
		return fmt.Errorf("exit status %d", r.ExitCode)
	}
	return nil
}

// LogValue groups the result under a single slog attribute.
func (r *Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("exit_code", r.ExitCode),
		slog.Int64("duration_ms", r.Duration.Milliseconds()),
		slog.Bool("timed_out", r.TimedOut),
	)
}
