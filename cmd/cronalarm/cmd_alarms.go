package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kballard/go-shellquote"

	"github.com/nejstastnejsistene/cronalarm/internal/alarm"
	"github.com/nejstastnejsistene/cronalarm/internal/config"
)

type addCmd struct {
	Expr    string `arg:"" help:"Cron expression, e.g. \"30 6 * * MON-FRI\" or @daily."`
	Options string `short:"o" name:"play-options" help:"Options passed to the play commands when this alarm fires."`
}

func (c *addCmd) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	options, err := shellquote.Split(c.Options)
	if err != nil {
		return fmt.Errorf("invalid play options: %w", err)
	}

	a, err := openApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.Add(ctx, c.Expr, options)
	if err != nil {
		return err
	}
	switch result {
	case alarm.Duplicate:
		fmt.Fprintln(out, "duplicate entry, entry not added")
	case alarm.Replaced:
		fmt.Fprintln(out, "duplicate entry, replacing play options")
	}
	report(out, a)
	return nil
}

type removeCmd struct {
	Expr string `arg:"" help:"Cron expression of the alarm to remove."`
}

func (c *removeCmd) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	a, err := openApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.service.Remove(ctx, c.Expr)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(out, "no alarm matches %q\n", c.Expr)
	}
	report(out, a)
	return nil
}

type listCmd struct{}

func (c *listCmd) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	a, err := openApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, e := range a.service.Entries() {
		fmt.Fprintln(out, e)
	}
	fmt.Fprintln(out)
	report(out, a)
	return nil
}

type clearCmd struct{}

func (c *clearCmd) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	a, err := openApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.Clear(ctx); err != nil {
		return err
	}
	report(out, a)
	return nil
}

type playCmd struct {
	Options []string `arg:"" optional:"" passthrough:"" help:"Options appended to each play command."`
}

// Run sounds the alarm first and only then re-arms the wake alarm, so a
// broken RTC never silences an alarm.
func (c *playCmd) Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	a, err := openApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	playErr := a.player.Play(ctx, c.Options)
	if err := a.service.Update(ctx); err != nil {
		logger.Error("failed to update alarms after playing", slog.String("error", err.Error()))
		fmt.Fprintf(out, "warning: %v\n", err)
	}
	report(out, a)
	return playErr
}
