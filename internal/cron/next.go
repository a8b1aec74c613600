package cron

import (
	"fmt"
	"time"
)

// MaxSearchYears bounds the search for the next occurrence. A leap day
// schedule can go eight years without firing (2096 to 2104), so the bound
// leaves plenty of headroom while still catching impossible dates like Feb 30.
const MaxSearchYears = 28

// Next returns the earliest minute strictly after now that matches the
// entry. Seconds of now are ignored, so a match in the current minute does
// not count. The result is in now's Location; wall times skipped by a
// daylight saving transition in that Location never match.
func (e *Entry) Next(now time.Time) (time.Time, error) {
	if e.IsReboot() {
		return time.Time{}, ErrRebootEntry
	}

	loc := now.Location()
	months := e.fields[Month].Values()
	hours := e.fields[Hour].Values()
	minutes := e.fields[Minute].Values()

	for year := now.Year(); year < now.Year()+MaxSearchYears; year++ {
		sameYear := year == now.Year()
		for _, m := range months {
			month := time.Month(m)
			if sameYear && month < now.Month() {
				continue
			}
			sameMonth := sameYear && month == now.Month()

			// Every day is a candidate: under the OR rule a day outside the
			// day-of-month set can still qualify through its weekday.
			for day := 1; day <= daysIn(year, month); day++ {
				if sameMonth && day < now.Day() {
					continue
				}
				if !e.dayMatches(year, month, day) {
					continue
				}
				sameDay := sameMonth && day == now.Day()

				for _, hour := range hours {
					if sameDay && hour < now.Hour() {
						continue
					}
					sameHour := sameDay && hour == now.Hour()

					for _, minute := range minutes {
						if sameHour && minute <= now.Minute() {
							continue
						}
						t := time.Date(year, month, day, hour, minute, 0, 0, loc)
						if !t.After(now) {
							continue
						}
						// Wall times in a DST gap are normalised to another
						// hour by time.Date and never occur.
						if t.Day() != day || t.Hour() != hour || t.Minute() != minute {
							continue
						}
						return t, nil
					}
				}
			}
		}
	}

	return time.Time{}, &SearchExhaustedError{
		Expr:  e.text,
		From:  now,
		Years: MaxSearchYears,
	}
}

// Earliest returns the soonest next occurrence across entries. Reboot
// entries are skipped. ok is false when no entry has an occurrence.
func Earliest(entries []*Entry, now time.Time) (next time.Time, ok bool, err error) {
	for _, e := range entries {
		if e.IsReboot() {
			continue
		}
		t, err := e.Next(now)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("next occurrence of %q: %w", e.text, err)
		}
		if !ok || t.Before(next) {
			next, ok = t, true
		}
	}
	return next, ok, nil
}

// daysIn returns the number of days in month of year.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
