// Package alarm keeps the stored alarms, the user's crontab and the RTC wake
// alarm consistent with each other.
//
// The store is the source of truth. Every mutation rewrites the store and then
// runs Update, which installs the stored lines into the crontab, removes
// stale lines this program owns, and arms the wake alarm for the earliest
// next occurrence.
package alarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/kballard/go-shellquote"

	"github.com/nejstastnejsistene/cronalarm/internal/cron"
	"github.com/nejstastnejsistene/cronalarm/internal/crontab"
	"github.com/nejstastnejsistene/cronalarm/internal/rtc"
	"github.com/nejstastnejsistene/cronalarm/internal/store"
)

// Store persists alarm lines. *store.Store satisfies it.
type Store interface {
	All() ([]store.Record, error)
	Add(line string, now time.Time) (*store.Record, error)
	Replace(id uint64, line string, now time.Time) (*store.Record, error)
	Delete(id uint64) error
	Clear() error
}

// Crontab edits the installed crontab. *crontab.System satisfies it.
type Crontab interface {
	Edit(ctx context.Context, fn func(*crontab.Tab) error) error
}

// AddResult says what Add did.
type AddResult int

const (
	// Added means a new line was stored.
	Added AddResult = iota
	// Duplicate means an identical line already existed; nothing changed.
	Duplicate
	// Replaced means a line with the same schedule but different play
	// options was replaced.
	Replaced
)

func (r AddResult) String() string {
	switch r {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	case Replaced:
		return "replaced"
	}
	return fmt.Sprintf("AddResult(%d)", int(r))
}

// Service is the alarm clock.
type Service struct {
	program string // shell-quoted
	store   Store
	crontab Crontab
	wake    rtc.WakeAlarm
	clock   quartz.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	entries []*cron.Entry
	next    *time.Time
	synced  bool
}

// New returns a Service whose crontab lines run program.
func New(program string, st Store, tab Crontab, wake rtc.WakeAlarm, clock quartz.Clock, logger *slog.Logger) *Service {
	return &Service{
		program: shellquote.Join(program),
		store:   st,
		crontab: tab,
		wake:    wake,
		clock:   clock,
		logger:  logger.With(slog.String("component", "alarm")),
	}
}

// prefix is the line an alarm for expr starts with, before play options.
func (s *Service) prefix(expr string) string {
	return strings.Join(strings.Fields(expr), " ") + " " + s.program + " play"
}

// Add stores an alarm for expr that plays with options. An alarm with the
// same schedule and options is a duplicate; one with different options is
// replaced.
func (s *Service) Add(ctx context.Context, expr string, options []string) (AddResult, error) {
	prefix := s.prefix(expr)
	line := prefix
	if len(options) > 0 {
		line += " " + shellquote.Join(options...)
	}

	entry, err := cron.Parse(line)
	if err != nil {
		return Added, err
	}
	if !entry.IsReboot() {
		if _, err := entry.Next(s.clock.Now()); err != nil {
			return Added, err
		}
	}

	records, err := s.store.All()
	if err != nil {
		return Added, fmt.Errorf("failed to read entries: %w", err)
	}

	result := Added
	now := s.clock.Now()
	for _, r := range records {
		if !strings.HasPrefix(r.Line, prefix) {
			continue
		}
		if r.Line == line {
			s.logger.Info("duplicate entry, entry not added", slog.String("line", line))
			return Duplicate, nil
		}
		s.logger.Info("duplicate entry, replacing play options", slog.String("line", line))
		if _, err := s.store.Replace(r.ID, line, now); err != nil {
			return Added, fmt.Errorf("failed to replace entry: %w", err)
		}
		result = Replaced
		break
	}

	if result == Added {
		s.logger.Info("adding entry", slog.String("line", line))
		if _, err := s.store.Add(line, now); err != nil {
			return Added, fmt.Errorf("failed to add entry: %w", err)
		}
	}

	return result, s.Update(ctx)
}

// Remove deletes the first alarm for expr and reports whether one existed.
func (s *Service) Remove(ctx context.Context, expr string) (bool, error) {
	prefix := s.prefix(expr)
	s.logger.Info("removing entry", slog.String("line", prefix))

	records, err := s.store.All()
	if err != nil {
		return false, fmt.Errorf("failed to read entries: %w", err)
	}

	removed := false
	for _, r := range records {
		if strings.HasPrefix(r.Line, prefix) {
			if err := s.store.Delete(r.ID); err != nil {
				return false, fmt.Errorf("failed to remove entry: %w", err)
			}
			removed = true
			break
		}
	}

	return removed, s.Update(ctx)
}

// Clear deletes every alarm.
func (s *Service) Clear(ctx context.Context) error {
	s.logger.Info("clearing alarms")
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return s.Update(ctx)
}

// Update reloads the stored alarms, syncs the crontab and arms the wake
// alarm for the earliest next occurrence.
func (s *Service) Update(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	s.entries = entries

	if err := s.crontab.Edit(ctx, s.syncTab); err != nil {
		return err
	}

	now := s.clock.Now()
	next, ok, err := cron.Earliest(entries, now)
	if err != nil {
		return err
	}
	s.next = nil
	if ok {
		s.next = &next
	}

	s.synced = false
	if err := s.wake.Set(ctx, s.next); err != nil {
		return err
	}

	got, err := s.wake.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to read back wake alarm", slog.String("error", err.Error()))
		return nil
	}
	s.synced = sameAlarm(got, s.next)
	if !s.synced {
		s.logger.Warn("wake alarm is not synchronized",
			slog.Any("want", s.next),
			slog.Any("got", got),
		)
	}

	s.logger.Debug("alarms updated",
		slog.Int("entries", len(entries)),
		slog.Any("next", s.next),
		slog.Bool("synced", s.synced),
	)
	return nil
}

// load parses the stored lines. Lines that no longer parse are skipped.
func (s *Service) load() ([]*cron.Entry, error) {
	records, err := s.store.All()
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	entries := make([]*cron.Entry, 0, len(records))
	for _, r := range records {
		e, err := cron.Parse(r.Line)
		if err != nil {
			s.logger.Error("skipping invalid stored entry",
				slog.Uint64("id", r.ID),
				slog.String("line", r.Line),
				slog.String("error", err.Error()),
			)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// syncTab adds stored alarms missing from tab and removes lines running this
// program that are no longer stored.
func (s *Service) syncTab(tab *crontab.Tab) error {
	for _, e := range s.entries {
		if tab.Contains(e) {
			continue
		}
		if err := tab.Add(e); err != nil && !errors.Is(err, crontab.ErrDuplicateEntry) {
			return err
		}
	}
	for _, e := range tab.Entries() {
		if !strings.HasPrefix(e.Command(), s.program) || s.stored(e) {
			continue
		}
		s.logger.Info("removing stale crontab entry", slog.String("line", e.String()))
		tab.Remove(e)
	}
	return nil
}

func (s *Service) stored(e *cron.Entry) bool {
	for _, have := range s.entries {
		if have.Equal(e) {
			return true
		}
	}
	return false
}

func sameAlarm(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Entries returns the alarms loaded by the last Update.
func (s *Service) Entries() []*cron.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*cron.Entry(nil), s.entries...)
}

// NextAlarm returns the next alarm, or nil when none is scheduled.
func (s *Service) NextAlarm() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		return nil
	}
	next := *s.next
	return &next
}

// Synced reports whether the wake alarm read back matched NextAlarm.
func (s *Service) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

// Message describes the next alarm relative to the service clock.
func (s *Service) Message() string {
	return Message(s.NextAlarm(), s.clock.Now())
}
