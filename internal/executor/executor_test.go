package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestExecute(t *testing.T) {
	e := New()
	result, err := e.Execute(context.Background(), "echo hello; echo oops >&2", time.Second*5)
	assert.NoError(t, err)
	assert.True(t, result.Success())
	assert.NoError(t, result.Err())
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestExecuteExitCode(t *testing.T) {
	result, err := New().Execute(context.Background(), "echo broken >&2; exit 3", time.Second*5)
	assert.NoError(t, err)
	assert.False(t, result.Success())
	assert.Equal(t, 3, result.ExitCode)
	assert.EqualError(t, result.Err(), "exit status 3: broken")
}

func TestExecuteTimeoutKillsProcessGroup(t *testing.T) {
	start := time.Now()
	result, err := New().Execute(context.Background(), "sleep 30 & sleep 30", 200*time.Millisecond)
	assert.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Equal(t, -1, result.ExitCode)
	assert.True(t, time.Since(start) < 10*time.Second)
	assert.Contains(t, result.Err().Error(), "timed out")
}

func TestRunPassesArgsAndStdin(t *testing.T) {
	result, err := New().Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", `cat; echo "$0"`, "arg with spaces"},
		Stdin: "from stdin\n",
	}, time.Second*5)
	assert.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "from stdin\narg with spaces\n", result.Stdout)
}

func TestRunMissingBinary(t *testing.T) {
	_, err := New().Run(context.Background(), Command{Name: "/nonexistent/cronalarm-test"}, time.Second)
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "execution failed"))
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "crontab", Args: []string{"-"}}
	assert.Equal(t, "crontab -", c.String())
}
