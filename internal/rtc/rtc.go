// Package rtc programs the real-time clock wake alarm through sysfs and
// reads it back from procfs.
package rtc

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ProcPath is where the kernel reports the RTC state, in UTC.
const ProcPath = "/proc/driver/rtc"

// WakeAlarm sets and reads the time the machine should be awake by.
type WakeAlarm interface {
	// Set programs the alarm for t, or clears it when t is nil.
	Set(ctx context.Context, t *time.Time) error
	// Get returns the programmed alarm, or nil when none is armed.
	Get(ctx context.Context) (*time.Time, error)
}

// Programmer writes raw wake alarm values. Sysfs writes the device files
// directly; helper.Client forwards to the privileged helper.
type Programmer interface {
	Program(ctx context.Context, at time.Time) error
	Clear(ctx context.Context) error
}

// Sysfs writes /sys/class/rtc/<device>/wakealarm.
type Sysfs struct {
	fs     afero.Fs
	device string
}

// NewSysfs returns a Sysfs for device, e.g. "rtc0".
func NewSysfs(fs afero.Fs, device string) *Sysfs {
	return &Sysfs{fs: fs, device: device}
}

// WakealarmPath is the sysfs file for the device.
func (s *Sysfs) WakealarmPath() string {
	return path.Join("/sys/class/rtc", s.device, "wakealarm")
}

// Program arms the alarm for at. The alarm must be cleared first.
func (s *Sysfs) Program(_ context.Context, at time.Time) error {
	return s.write(strconv.FormatInt(at.Unix(), 10))
}

// Clear disarms the alarm.
func (s *Sysfs) Clear(_ context.Context) error {
	return s.write("0")
}

func (s *Sysfs) write(value string) error {
	// sysfs attributes take the whole value in a single write.
	f, err := s.fs.OpenFile(s.WakealarmPath(), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.WakealarmPath(), err)
	}
	if _, err := f.Write([]byte(value + "\n")); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", s.WakealarmPath(), err)
	}
	return f.Close()
}

// Device is the wake alarm of one RTC. The alarm fires offset before the
// requested time so the machine has booted by then.
type Device struct {
	fs         afero.Fs
	offset     time.Duration
	programmer Programmer
}

// New returns a Device that reads state from fs and writes through p.
func New(fs afero.Fs, offset time.Duration, p Programmer) *Device {
	return &Device{fs: fs, offset: offset, programmer: p}
}

// Set clears the alarm and, when t is non-nil, arms it for t minus the
// offset.
func (d *Device) Set(ctx context.Context, t *time.Time) error {
	if err := d.programmer.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear wake alarm: %w", err)
	}
	if t == nil {
		return nil
	}
	if err := d.programmer.Program(ctx, t.Add(-d.offset)); err != nil {
		return fmt.Errorf("failed to set wake alarm: %w", err)
	}
	return nil
}

// Get reads the armed alarm from procfs and adds the offset back.
func (d *Device) Get(_ context.Context) (*time.Time, error) {
	data, err := afero.ReadFile(d.fs, ProcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ProcPath, err)
	}
	alarm, err := parseProc(data)
	if err != nil || alarm == nil {
		return nil, err
	}
	t := alarm.Add(d.offset)
	return &t, nil
}

// parseProc extracts the alarm from /proc/driver/rtc. It returns nil when
// the alarm interrupt is disabled or the date is unset.
func parseProc(data []byte) (*time.Time, error) {
	fields := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if irq, ok := fields["alarm_IRQ"]; ok && irq != "yes" {
		return nil, nil
	}
	clock, date := fields["alrm_time"], fields["alrm_date"]
	if clock == "" || date == "" {
		return nil, fmt.Errorf("%s has no alarm fields", ProcPath)
	}
	if strings.Contains(date, "*") {
		return nil, nil
	}

	t, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse alarm %q %q: %w", date, clock, err)
	}
	return &t, nil
}
