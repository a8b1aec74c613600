package version

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestInfo(t *testing.T) {
	assert.Equal(t, "cronalarm dev (commit: unknown, built: unknown)", Info("cronalarm"))
}
