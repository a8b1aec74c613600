// Package crontab reads, edits and installs the user's crontab.
//
// A Tab keeps every line of the crontab verbatim so comments, environment
// assignments and lines owned by other programs survive an edit untouched.
package crontab

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nejstastnejsistene/cronalarm/internal/cron"
)

// ErrDuplicateEntry is returned by Add when an equal entry is present.
var ErrDuplicateEntry = errors.New("duplicate crontab entry")

// envLine matches NAME=value assignments.
var envLine = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*=`)

type line struct {
	text  string
	entry *cron.Entry
	err   error
}

// InvalidLine is a crontab line that is neither a comment, an environment
// assignment nor a valid schedule.
type InvalidLine struct {
	Number int
	Text   string
	Err    error
}

func (l InvalidLine) Error() string {
	return fmt.Sprintf("line %d: %v", l.Number, l.Err)
}

// Tab is an in-memory crontab.
type Tab struct {
	lines []line
}

// Parse splits text into lines and parses the schedule lines among them.
func Parse(text string) *Tab {
	t := &Tab{}
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return t
	}
	for _, raw := range strings.Split(text, "\n") {
		t.lines = append(t.lines, parseLine(raw))
	}
	return t
}

func parseLine(raw string) line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || envLine.MatchString(trimmed) {
		return line{text: raw}
	}
	entry, err := cron.Parse(trimmed)
	return line{text: raw, entry: entry, err: err}
}

// Entries returns the parsed schedule lines in order.
func (t *Tab) Entries() []*cron.Entry {
	var entries []*cron.Entry
	for _, l := range t.lines {
		if l.entry != nil {
			entries = append(entries, l.entry)
		}
	}
	return entries
}

// Invalid returns the lines that failed to parse. They are kept in the tab.
func (t *Tab) Invalid() []InvalidLine {
	var invalid []InvalidLine
	for i, l := range t.lines {
		if l.err != nil {
			invalid = append(invalid, InvalidLine{Number: i + 1, Text: l.text, Err: l.err})
		}
	}
	return invalid
}

// Contains reports whether an entry equal to e is present.
func (t *Tab) Contains(e *cron.Entry) bool {
	return t.index(e) >= 0
}

// Add appends e.
func (t *Tab) Add(e *cron.Entry) error {
	if t.Contains(e) {
		return fmt.Errorf("%w: %q", ErrDuplicateEntry, e.String())
	}
	t.lines = append(t.lines, line{text: e.String(), entry: e})
	return nil
}

// Remove deletes the first entry equal to e and reports whether one was found.
func (t *Tab) Remove(e *cron.Entry) bool {
	i := t.index(e)
	if i < 0 {
		return false
	}
	t.lines = append(t.lines[:i], t.lines[i+1:]...)
	return true
}

func (t *Tab) index(e *cron.Entry) int {
	for i, l := range t.lines {
		if l.entry != nil && l.entry.Equal(e) {
			return i
		}
	}
	return -1
}

// String renders the tab as crontab(1) expects it, newline terminated.
func (t *Tab) String() string {
	if len(t.lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, l := range t.lines {
		b.WriteString(l.text)
		b.WriteByte('\n')
	}
	return b.String()
}
