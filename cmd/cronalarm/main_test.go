package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/nejstastnejsistene/cronalarm/internal/config"
	"github.com/nejstastnejsistene/cronalarm/internal/cron"
)

func parse(t *testing.T, args ...string) (*cli, *kong.Context) {
	t.Helper()
	var c cli
	parser, err := kong.New(&c,
		kong.Name("cronalarm"),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Vars{"version": "test", "config_path": "/etc/cronalarm.yaml"},
	)
	assert.NoError(t, err)
	kctx, err := parser.Parse(args)
	assert.NoError(t, err)
	return &c, kctx
}

func TestParseAdd(t *testing.T) {
	c, kctx := parse(t, "add", "30 6 * * MON-FRI", "-o", "'Wake up' --volume 5")
	assert.True(t, strings.HasPrefix(kctx.Command(), "add"))
	assert.Equal(t, "30 6 * * MON-FRI", c.Add.Expr)
	assert.Equal(t, "'Wake up' --volume 5", c.Add.Options)
	assert.Equal(t, "/etc/cronalarm.yaml", c.Config)
}

func TestParsePlayPassesFlagsThrough(t *testing.T) {
	c, _ := parse(t, "play", "loud", "--fade", "5")
	assert.Equal(t, []string{"loud", "--fade", "5"}, c.Play.Options)
}

func TestParseConfigCommandName(t *testing.T) {
	c, kctx := parse(t, "config", "--save")
	assert.Equal(t, "config", kctx.Command())
	assert.True(t, c.Show.Save)
}

func TestNextCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := &nextCmd{Expr: "0 9 * * MON", From: "2026-10-19T10:30:00Z", Count: 3}
	assert.NoError(t, cmd.Run(&out))
	assert.Equal(t, "Mon 2026-10-26 09:00 UTC\nMon 2026-11-02 09:00 UTC\nMon 2026-11-09 09:00 UTC\n", out.String())
}

func TestNextCmdReboot(t *testing.T) {
	var out bytes.Buffer
	cmd := &nextCmd{Expr: "@reboot", Count: 3}
	assert.NoError(t, cmd.Run(&out))
	assert.Equal(t, "@reboot runs once at boot\n", out.String())
}

func TestNextCmdErrors(t *testing.T) {
	var out bytes.Buffer
	err := (&nextCmd{Expr: "61 * * * *", Count: 1}).Run(&out)
	assert.IsError(t, err, cron.ErrMalformedExpression)

	err = (&nextCmd{Expr: "* * * * *", From: "tomorrow", Count: 1}).Run(&out)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --from")

	err = (&nextCmd{Expr: "0 0 30 2 *", From: "2026-10-19T10:30:00Z", Count: 1}).Run(&out)
	assert.IsError(t, err, cron.ErrSearchExhausted)
	assert.Zero(t, out.Len())
}

func TestConfigCmd(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)

	var out bytes.Buffer
	assert.NoError(t, (&configCmd{}).Run(cfg, "unused", &out))
	assert.Contains(t, out.String(), "rtc_device: rtc0\n")
	assert.Contains(t, out.String(), "resync_schedule:")

	cfg.PlayCommands = []string{"mpv /usr/share/sounds/alarm.ogg"}
	path := filepath.Join(t.TempDir(), "cronalarm", "config.yaml")
	out.Reset()
	assert.NoError(t, (&configCmd{Save: true}).Run(cfg, configFile(path), &out))
	assert.Equal(t, "configuration saved to "+path+"\n", out.String())

	saved, err := config.Load(path)
	assert.NoError(t, err)
	assert.Equal(t, cfg, saved)
}
