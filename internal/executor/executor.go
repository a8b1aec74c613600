// executor.go implements command execution with timeout and process group management.
// It ensures all child processes are killed on timeout using process groups,
// so a hung play command or crontab invocation cannot leave orphans behind.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Executor runs commands with timeout and output capture.
type Executor struct {
	// Shell is the shell used by Execute. Default: /bin/sh
	Shell string
}

// Command is a program invocation that bypasses the shell.
type Command struct {
	Name  string
	Args  []string
	Stdin string
}

// String renders the command for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// New creates a new Executor with default settings.
func New() *Executor {
	return &Executor{
		Shell: "/bin/sh",
	}
}

// Execute runs a shell command line with the given timeout.
// A non-zero exit or a timeout is reported in the Result, not as an error.
func (e *Executor) Execute(ctx context.Context, command string, timeout time.Duration) (*Result, error) {
	return e.run(ctx, timeout, func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, e.Shell, "-c", command)
	})
}

// Run executes c directly with the given timeout, feeding it c.Stdin.
func (e *Executor) Run(ctx context.Context, c Command, timeout time.Duration) (*Result, error) {
	return e.run(ctx, timeout, func(ctx context.Context) *exec.Cmd {
		cmd := exec.CommandContext(ctx, c.Name, c.Args...)
		if c.Stdin != "" {
			cmd.Stdin = strings.NewReader(c.Stdin)
		}
		return cmd
	})
}

func (e *Executor) run(ctx context.Context, timeout time.Duration, build func(context.Context) *exec.Cmd) (*Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := build(execCtx)

	// New process group so we can kill all children
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Kill the entire process group (negative PID)
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	// WaitDelay ensures orphaned processes don't block Wait()
	cmd.WaitDelay = 5 * time.Second

	result := &Result{
		StartedAt: time.Now(),
	}

	err := cmd.Run()
	result.Duration = time.Since(result.StartedAt)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			result.ExitCode = -1
			result.TimedOut = true
			return result, nil
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		// Command not found, permission denied, cancelled, etc.
		return nil, fmt.Errorf("execution failed: %w", err)
	}

	result.ExitCode = 0
	return result, nil
}
