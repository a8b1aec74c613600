package cron

import (
	"strings"
	"time"
)

// Flags holds the behavioural bits of an Entry.
type Flags uint8

const (
	// FlagReboot marks an @reboot entry, which has no time fields.
	FlagReboot Flags = 1 << iota

	// FlagDomDowStar is set when the day-of-month or day-of-week field
	// contains a literal "*". Days must then satisfy both fields instead of
	// either one.
	//
	// Either field is enough, not both: this is what Vixie cron does, and it
	// is the only reading under which "* * * * SUN" fires only on Sundays.
	// Requiring both would turn that line into "every day".
	FlagDomDowStar
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool { return f&flag == flag }

// Entry is a parsed schedule line. It is immutable once returned by Parse.
// Two entries are equal when their original text is equal.
type Entry struct {
	text    string
	fields  [numFields]Set
	flags   Flags
	command string
}

// String returns the original line.
func (e *Entry) String() string { return e.text }

// Command returns the text following the schedule.
func (e *Entry) Command() string { return e.command }

// Flags returns the entry's flags.
func (e *Entry) Flags() Flags { return e.flags }

// IsReboot reports whether the entry is an @reboot entry.
func (e *Entry) IsReboot() bool { return e.flags.Has(FlagReboot) }

// Field returns a copy of the selection for f. Reboot entries have no
// fields and return the zero Set.
func (e *Entry) Field(f Field) Set {
	if e.IsReboot() || f < 0 || f >= numFields {
		return Set{}
	}
	return e.fields[f].clone()
}

// Equal compares entries by their original text.
func (e *Entry) Equal(o *Entry) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.text == o.text
}

// Schedule renders the parsed fields in canonical form, or "@reboot".
func (e *Entry) Schedule() string {
	if e.IsReboot() {
		return rebootDirective
	}
	parts := make([]string, 0, numFields)
	for _, f := range Fields() {
		parts = append(parts, e.fields[f].String())
	}
	return strings.Join(parts, " ")
}

// Matches reports whether the minute containing t satisfies the schedule.
func (e *Entry) Matches(t time.Time) bool {
	if e.IsReboot() {
		return false
	}
	return e.fields[Month].Has(int(t.Month())) &&
		e.dayMatches(t.Year(), t.Month(), t.Day()) &&
		e.fields[Hour].Has(t.Hour()) &&
		e.fields[Minute].Has(t.Minute())
}

// dayMatches applies the day-of-month/day-of-week rule to a date.
func (e *Entry) dayMatches(year int, month time.Month, day int) bool {
	weekday := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday()
	validDom := e.fields[DayOfMonth].Has(day)
	validDow := e.fields[DayOfWeek].Has(int(weekday))
	if e.flags.Has(FlagDomDowStar) {
		return validDom && validDow
	}
	return validDom || validDow
}
