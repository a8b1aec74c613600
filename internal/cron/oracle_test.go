package cron

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	robfig "github.com/robfig/cron/v3"
)

// robfig/cron follows the same day-of-month/day-of-week rule for plain
// wildcards, so it doubles as a reference for schedules within its subset:
// weekdays 0-6 and no stepped wildcards in the day fields.
func TestNextAgreesWithRobfigCron(t *testing.T) {
	lines := []string{
		"* * * * *",
		"*/7 * * * *",
		"0 */3 * * *",
		"30 6 * * MON-FRI",
		"0 0 1,15 * *",
		"0 0 1,15 * SUN",
		"0 0 13 * FRI",
		"15 3 29 2 *",
		"0 0 31 * *",
		"0 12 * JAN,JUL *",
		"5-10 22 * * 6",
		"0 0 * * 0",
		"45 23 31 12 *",
		"0 9 1-7 * 1",
		"@hourly",
		"@daily",
		"@weekly",
		"@monthly",
		"@yearly",
	}
	starts := []time.Time{
		date(2026, 10, 19, 10, 30),
		date(2026, 12, 31, 23, 59),
		date(2027, 2, 28, 12, 0),
		time.Date(2028, 2, 29, 3, 15, 42, 0, time.UTC),
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			ours := MustParse(line)
			theirs, err := robfig.ParseStandard(line)
			assert.NoError(t, err)

			for _, start := range starts {
				now := start
				for i := 0; i < 10; i++ {
					want := theirs.Next(now)
					got, err := ours.Next(now)
					assert.NoError(t, err)
					assertTime(t, want, got, "occurrence %d from %s", i, start)
					now = got
				}
			}
		})
	}
}
