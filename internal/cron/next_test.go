package cron

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/alecthomas/assert/v2"
)

const layout = "2006-01-02 15:04:05 Mon MST"

func date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func assertTime(t *testing.T, want, got time.Time, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want.Format(layout), got.Format(layout), msgAndArgs...)
}

func TestNext(t *testing.T) {
	// 2026-10-19 is a Monday.
	monday := date(2026, 10, 19, 10, 30)

	tests := []struct {
		name string
		line string
		from time.Time
		want time.Time
	}{
		{"every_minute", "* * * * *", monday, date(2026, 10, 19, 10, 31)},
		{"ignores_seconds", "* * * * *", monday.Add(59*time.Second + 999*time.Millisecond), date(2026, 10, 19, 10, 31)},
		{"later_today", "0 12 * * *", monday, date(2026, 10, 19, 12, 0)},
		{"current_minute_excluded", "30 10 * * *", monday, date(2026, 10, 20, 10, 30)},
		{"tomorrow", "0 7 * * *", monday, date(2026, 10, 20, 7, 0)},
		{"dom_or_dow_picks_sunday", "* * 1,15 * SUN", monday, date(2026, 10, 25, 0, 0)},
		{"dom_or_dow_picks_first", "* * 1,15 * SUN", date(2026, 11, 29, 23, 59), date(2026, 12, 1, 0, 0)},
		{"dow_only", "* * * * SUN", monday, date(2026, 10, 25, 0, 0)},
		{"dow_seven", "0 9 * * 7", monday, date(2026, 10, 25, 9, 0)},
		{"dom_only", "0 0 1,15 * *", monday, date(2026, 11, 1, 0, 0)},
		{"dom_only_again", "0 0 1,15 * *", date(2026, 11, 1, 0, 0), date(2026, 11, 15, 0, 0)},
		{"weekdays", "30 6 * * MON-FRI", date(2026, 10, 23, 7, 0), date(2026, 10, 26, 6, 30)},
		{"year_rollover", "0 0 1 1 *", date(2026, 12, 31, 23, 59), date(2027, 1, 1, 0, 0)},
		{"last_minute_of_year", "59 23 31 12 *", date(2026, 12, 31, 23, 59), date(2027, 12, 31, 23, 59)},
		{"skips_short_months", "0 0 31 * *", date(2026, 4, 1, 0, 0), date(2026, 5, 31, 0, 0)},
		{"skips_months", "0 0 1 JUN *", monday, date(2027, 6, 1, 0, 0)},
		{"leap_day", "30 2 29 2 *", date(2026, 3, 1, 0, 0), date(2028, 2, 29, 2, 30)},
		{"leap_day_same_year", "30 2 29 2 *", date(2028, 1, 15, 0, 0), date(2028, 2, 29, 2, 30)},
		{"leap_day_skips_2100", "30 2 29 2 *", date(2096, 3, 1, 0, 0), date(2104, 2, 29, 2, 30)},
		{"impossible_dom_rescued_by_dow", "0 0 31 2 MON", monday, date(2027, 2, 1, 0, 0)},
		{"later_month_same_day_number", "0 5 15 * *", date(2026, 3, 15, 10, 0), date(2026, 4, 15, 5, 0)},
		{"later_day_earlier_hour", "0 5 * * *", date(2026, 3, 15, 10, 0), date(2026, 3, 16, 5, 0)},
		{"step_minutes", "*/15 * * * *", date(2026, 10, 19, 10, 45), date(2026, 10, 19, 11, 0)},
		{"hourly", "@hourly", monday, date(2026, 10, 19, 11, 0)},
		{"weekly", "@weekly", monday, date(2026, 10, 25, 0, 0)},
		{"monthly", "@monthly", monday, date(2026, 11, 1, 0, 0)},
		{"yearly", "@yearly", monday, date(2027, 1, 1, 0, 0)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := MustParse(test.line)
			got, err := e.Next(test.from)
			assert.NoError(t, err)
			assertTime(t, test.want, got)
			assert.True(t, got.After(test.from))
			assert.True(t, e.Matches(got))
		})
	}
}

func TestNextDowOnlyFiresOnSundays(t *testing.T) {
	e := MustParse("0 8 * * SUN")
	now := date(2026, 1, 1, 0, 0)
	for i := 0; i < 120; i++ {
		next, err := e.Next(now)
		assert.NoError(t, err)
		assert.Equal(t, time.Sunday, next.Weekday(), "occurrence %d: %s", i, next)
		assert.Equal(t, 8, next.Hour())
		if i > 0 {
			assert.Equal(t, 7*24*time.Hour, next.Sub(now))
		}
		now = next
	}
}

func TestNextDomOnlyIgnoresWeekday(t *testing.T) {
	e := MustParse("0 0 1,15 * *")
	now := date(2026, 1, 1, 0, 0)
	weekdays := map[time.Weekday]bool{}
	for i := 0; i < 48; i++ {
		next, err := e.Next(now)
		assert.NoError(t, err)
		assert.True(t, next.Day() == 1 || next.Day() == 15, "occurrence %d: %s", i, next)
		weekdays[next.Weekday()] = true
		now = next
	}
	assert.True(t, len(weekdays) > 1)
}

func TestNextKeepsLocation(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	e := MustParse("0 12 * * *")
	got, err := e.Next(time.Date(2026, 10, 19, 10, 30, 0, 0, zone))
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 12, 0, 0, 0, zone).Format(layout), got.Format(layout))
	assert.Equal(t, "UTC+5", got.Location().String())
}

func TestNextSkipsDaylightSavingGap(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	// Clocks jump from 02:00 EST to 03:00 EDT on 2025-03-09.
	tests := []struct {
		line string
		from time.Time
		want string
	}{
		{"30 2 * * *", time.Date(2025, 3, 9, 1, 0, 0, 0, newYork), "2025-03-10 02:30:00 Mon EDT"},
		{"*/30 * * * *", time.Date(2025, 3, 9, 1, 45, 0, 0, newYork), "2025-03-09 03:00:00 Sun EDT"},
		{"0 2 9 3 *", time.Date(2025, 3, 1, 0, 0, 0, 0, newYork), "2026-03-09 02:00:00 Mon EDT"},
	}
	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			e := MustParse(test.line)
			got, err := e.Next(test.from)
			assert.NoError(t, err)
			assert.Equal(t, test.want, got.Format(layout))
			assert.True(t, e.Matches(got), "%s does not match %s", got, test.line)
		})
	}
}

func TestNextDuringDaylightSavingOverlap(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	// 01:00-02:00 happens twice on 2025-11-02; either instant is a match.
	e := MustParse("30 1 * * *")
	got, err := e.Next(time.Date(2025, 11, 2, 0, 0, 0, 0, newYork))
	assert.NoError(t, err)
	assert.Equal(t, 2, got.Day())
	assert.Equal(t, 1, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.True(t, e.Matches(got))
}

func TestNextSearchExhausted(t *testing.T) {
	for _, line := range []string{"0 0 31 2 *", "0 0 30 2 *", "0 0 31 4,6,9,11 *"} {
		t.Run(line, func(t *testing.T) {
			from := date(2026, 10, 19, 10, 30)
			_, err := MustParse(line).Next(from)
			assert.IsError(t, err, ErrSearchExhausted)

			var exhausted *SearchExhaustedError
			assert.True(t, errors.As(err, &exhausted))
			assert.Equal(t, MaxSearchYears, exhausted.Years)
			assert.Equal(t, line, exhausted.Expr)
			assert.True(t, exhausted.From.Equal(from))
		})
	}
}

func TestNextReboot(t *testing.T) {
	_, err := MustParse("@reboot cmd").Next(date(2026, 10, 19, 10, 30))
	assert.IsError(t, err, ErrRebootEntry)
}

func TestEarliest(t *testing.T) {
	entries := []*Entry{
		MustParse("@reboot cronalarm play"),
		MustParse("0 7 * * * cronalarm play"),
		MustParse("30 6 * * * cronalarm play"),
	}
	next, ok, err := Earliest(entries, date(2026, 10, 19, 6, 45))
	assert.NoError(t, err)
	assert.True(t, ok)
	assertTime(t, date(2026, 10, 19, 7, 0), next)

	next, ok, err = Earliest(entries, date(2026, 10, 19, 7, 0))
	assert.NoError(t, err)
	assert.True(t, ok)
	assertTime(t, date(2026, 10, 20, 6, 30), next)
}

func TestEarliestWithoutSchedules(t *testing.T) {
	_, ok, err := Earliest(nil, date(2026, 10, 19, 6, 45))
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = Earliest([]*Entry{MustParse("@reboot x")}, date(2026, 10, 19, 6, 45))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEarliestPropagatesErrors(t *testing.T) {
	entries := []*Entry{MustParse("0 7 * * *"), MustParse("0 0 31 2 *")}
	_, _, err := Earliest(entries, date(2026, 10, 19, 6, 45))
	assert.IsError(t, err, ErrSearchExhausted)
	assert.Contains(t, err.Error(), "0 0 31 2 *")
}

// naiveNext walks forward one minute at a time until the entry matches.
func naiveNext(e *Entry, now time.Time, limit time.Duration) (time.Time, bool) {
	t := now.Truncate(time.Minute).Add(time.Minute)
	end := now.Add(limit)
	for ; t.Before(end); t = t.Add(time.Minute) {
		if e.Matches(t) {
			return t, true
		}
	}
	return time.Time{}, false
}

func TestNextAgreesWithMinuteScan(t *testing.T) {
	choices := [numFields][]string{
		Minute:     {"*", "0", "*/15", "5,35", "10-20/5", "59"},
		Hour:       {"*", "0", "9-17", "*/6", "23", "3,15"},
		DayOfMonth: {"*", "1", "15", "1,15", "28-31", "13", "5-10/2"},
		Month:      {"*", "1-6", "*/2", "3,9", "JAN-DEC", "7-12", "FEB"},
		DayOfWeek:  {"*", "SUN", "MON-FRI", "6,7", "5", "1-5/2"},
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 40; i++ {
		parts := make([]string, 0, numFields)
		for _, f := range Fields() {
			parts = append(parts, choices[f][rng.Intn(len(choices[f]))])
		}
		line := strings.Join(parts, " ")
		e := MustParse(line)

		now := time.Date(2026+rng.Intn(3), time.Month(1+rng.Intn(12)), 1+rng.Intn(28),
			rng.Intn(24), rng.Intn(60), rng.Intn(60), 0, time.UTC)

		want, found := naiveNext(e, now, 2*366*24*time.Hour)
		assert.True(t, found, "%q from %s", line, now)

		got, err := e.Next(now)
		assert.NoError(t, err)
		assertTime(t, want, got, "%q from %s", line, now)
	}
}
