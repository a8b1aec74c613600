package rtc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/spf13/afero"
)

const procArmed = `rtc_time	: 10:30:00
rtc_date	: 2026-10-19
alrm_time	: 06:29:00
alrm_date	: 2026-10-20
alarm_IRQ	: yes
alrm_pending	: no
update IRQ enabled	: no
periodic IRQ enabled	: no
24hr		: yes
`

const procDisarmed = `rtc_time	: 10:30:00
rtc_date	: 2026-10-19
alrm_time	: 06:29:00
alrm_date	: 2026-10-20
alarm_IRQ	: no
`

func newFS(t *testing.T, proc string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/sys/class/rtc/rtc0/wakealarm", nil, 0o644))
	assert.NoError(t, afero.WriteFile(fs, ProcPath, []byte(proc), 0o444))
	return fs
}

func TestSetWritesOffsetUnixTime(t *testing.T) {
	fs := newFS(t, procArmed)
	dev := New(fs, time.Minute, NewSysfs(fs, "rtc0"))

	at := time.Date(2026, 10, 20, 6, 30, 0, 0, time.UTC)
	assert.NoError(t, dev.Set(context.Background(), &at))

	data, err := afero.ReadFile(fs, "/sys/class/rtc/rtc0/wakealarm")
	assert.NoError(t, err)
	assert.Equal(t, "1792477740\n", string(data))
}

func TestSetNilClears(t *testing.T) {
	fs := newFS(t, procArmed)
	dev := New(fs, time.Minute, NewSysfs(fs, "rtc0"))
	assert.NoError(t, dev.Set(context.Background(), nil))

	data, err := afero.ReadFile(fs, "/sys/class/rtc/rtc0/wakealarm")
	assert.NoError(t, err)
	assert.Equal(t, "0\n", string(data))
}

func TestSetMissingDevice(t *testing.T) {
	fs := newFS(t, procArmed)
	dev := New(fs, time.Minute, NewSysfs(fs, "rtc7"))
	err := dev.Set(context.Background(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "/sys/class/rtc/rtc7/wakealarm")
}

type recordingProgrammer struct {
	calls []string
	err   error
}

func (r *recordingProgrammer) Program(_ context.Context, at time.Time) error {
	r.calls = append(r.calls, at.UTC().Format(time.RFC3339))
	return r.err
}

func (r *recordingProgrammer) Clear(context.Context) error {
	r.calls = append(r.calls, "clear")
	return nil
}

func TestSetClearsBeforeProgramming(t *testing.T) {
	rec := &recordingProgrammer{}
	dev := New(afero.NewMemMapFs(), 90*time.Second, rec)
	at := time.Date(2026, 10, 20, 6, 30, 0, 0, time.UTC)
	assert.NoError(t, dev.Set(context.Background(), &at))
	assert.Equal(t, []string{"clear", "2026-10-20T06:28:30Z"}, rec.calls)

	rec.err = errors.New("device busy")
	err := dev.Set(context.Background(), &at)
	assert.IsError(t, err, rec.err)
}

func TestGet(t *testing.T) {
	dev := New(newFS(t, procArmed), time.Minute, nil)
	got, err := dev.Get(context.Background())
	assert.NoError(t, err)
	assert.NotZero(t, got)
	assert.Equal(t, "2026-10-20T06:30:00Z", got.Format(time.RFC3339))
}

func TestGetDisarmed(t *testing.T) {
	dev := New(newFS(t, procDisarmed), time.Minute, nil)
	got, err := dev.Get(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, got)
}

func TestGetUnsetDate(t *testing.T) {
	proc := "alrm_time\t: **:**:**\nalrm_date\t: ****-**-**\n"
	dev := New(newFS(t, proc), time.Minute, nil)
	got, err := dev.Get(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, got)
}

func TestGetMalformed(t *testing.T) {
	for _, proc := range []string{"rtc_time\t: 10:30:00\n", "alrm_time\t: 25:00\nalrm_date\t: 2026-10-20\nalarm_IRQ\t: yes\n"} {
		_, err := New(newFS(t, proc), time.Minute, nil).Get(context.Background())
		assert.Error(t, err)
	}
}

func TestGetMissingProc(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), time.Minute, nil).Get(context.Background())
	assert.Error(t, err)
}
