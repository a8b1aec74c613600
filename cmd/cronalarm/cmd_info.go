package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/nejstastnejsistene/cronalarm/internal/config"
	"github.com/nejstastnejsistene/cronalarm/internal/cron"
	"github.com/nejstastnejsistene/cronalarm/internal/logging"
	"github.com/nejstastnejsistene/cronalarm/internal/sysinfo"
)

type logCmd struct {
	Lines int `short:"n" default:"10" help:"Number of lines to show."`
}

func (c *logCmd) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	a, err := openApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	lines, err := logging.Tail(afero.NewOsFs(), cfg.LogPath(), c.Lines)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	report(out, a)
	return nil
}

type statusCmd struct{}

func (c *statusCmd) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	a, err := openApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	now := a.clock.Now()
	if info, err := sysinfo.Collect(ctx); err != nil {
		logger.Warn("failed to collect system info", slog.String("error", err.Error()))
	} else {
		fmt.Fprintf(out, "host:       %s (%s %s)\n", info.Hostname, info.Platform, info.PlatformVersion)
		fmt.Fprintf(out, "booted:     %s (%s)\n", info.BootTime.Format(time.DateTime), humanize.Time(info.BootTime))
	}

	entries := a.service.Entries()
	reboot := 0
	for _, e := range entries {
		if e.IsReboot() {
			reboot++
		}
	}
	fmt.Fprintf(out, "alarms:     %d", len(entries))
	if reboot > 0 {
		fmt.Fprintf(out, " (%d at boot)", reboot)
	}
	fmt.Fprintln(out)

	if next := a.service.NextAlarm(); next != nil {
		fmt.Fprintf(out, "next alarm: %s (%s)\n", next.Format(time.DateTime), humanize.RelTime(*next, now, "ago", "from now"))
	} else {
		fmt.Fprintln(out, "next alarm: none")
	}
	fmt.Fprintf(out, "wakealarm:  %s\n", syncedWord(a.service.Synced()))

	plays, err := a.store.RecentPlays(1)
	if err != nil {
		return err
	}
	if len(plays) > 0 {
		p := plays[0]
		fmt.Fprintf(out, "last play:  %s (%s, %d failed)\n", p.At.Format(time.DateTime), humanize.Time(p.At), p.Failures)
	}
	fmt.Fprintln(out)
	report(out, a)
	return nil
}

func syncedWord(synced bool) string {
	if synced {
		return "synchronized"
	}
	return "not synchronized"
}

type nextCmd struct {
	Expr  string `arg:"" help:"Cron expression."`
	From  string `help:"Start time in RFC 3339 format. Defaults to now."`
	Count int    `short:"n" default:"5" help:"Number of occurrences to print."`
}

// Run prints occurrences without touching the alarms.
func (c *nextCmd) Run(out io.Writer) error {
	e, err := cron.Parse(c.Expr)
	if err != nil {
		return err
	}
	if e.IsReboot() {
		fmt.Fprintln(out, "@reboot runs once at boot")
		return nil
	}

	now := time.Now()
	if c.From != "" {
		if now, err = time.Parse(time.RFC3339, c.From); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}

	for i := 0; i < c.Count; i++ {
		if now, err = e.Next(now); err != nil {
			return err
		}
		fmt.Fprintln(out, now.Format("Mon 2006-01-02 15:04 MST"))
	}
	return nil
}

type configCmd struct {
	Save bool `help:"Write the effective configuration to the config file."`
}

func (c *configCmd) Run(cfg *config.Config, path configFile, out io.Writer) error {
	if c.Save {
		if err := config.Save(string(path), cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "configuration saved to %s\n", path)
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}
