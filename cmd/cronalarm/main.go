// cronalarm - Entry Point
//
// cronalarm is an alarm clock built on cron. Alarms are cron schedules; each
// one becomes a crontab line that runs `cronalarm play`, and the real-time
// clock is armed so a suspended machine wakes up just before the earliest
// one fires.
//
// Configuration is loaded from $XDG_CONFIG_HOME/cronalarm/config.yaml (or the
// path given by --config). A missing file means defaults.
//
// Every command that touches alarms first re-applies the stored alarms, so
// the crontab and wake alarm are repaired on each invocation. The daemon
// command does the same on a schedule.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/nejstastnejsistene/cronalarm/internal/config"
	"github.com/nejstastnejsistene/cronalarm/internal/logging"
	"github.com/nejstastnejsistene/cronalarm/internal/version"
)

type cli struct {
	Version kong.VersionFlag `help:"Show version information."`
	Config  string           `type:"path" default:"${config_path}" help:"Configuration file." env:"CRONALARM_CONFIG"`

	Add    addCmd    `cmd:"" help:"Add an alarm."`
	Remove removeCmd `cmd:"" help:"Remove an alarm."`
	List   listCmd   `cmd:"" help:"List alarms."`
	Clear  clearCmd  `cmd:"" help:"Remove all alarms."`
	Play   playCmd   `cmd:"" help:"Sound the alarm. This is what the crontab runs."`
	Log    logCmd    `cmd:"" help:"Show the end of the log."`
	Status statusCmd `cmd:"" help:"Show the next alarm and wake alarm state."`
	Next   nextCmd   `cmd:"" help:"Print upcoming occurrences of a cron expression."`
	Daemon daemonCmd `cmd:"" help:"Keep the crontab and wake alarm in sync."`
	Show   configCmd `cmd:"" name:"config" help:"Print the effective configuration."`
}

func main() {
	configPath, err := config.DefaultPath()
	if err != nil {
		configPath = "config.yaml"
	}

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("cronalarm"),
		kong.Description("Cron Alarm Clock"),
		kong.UsageOnError(),
		kong.Vars{
			"version":     version.Info("cronalarm"),
			"config_path": configPath,
		},
	)

	cfg, err := config.Load(c.Config)
	kctx.FatalIfErrorf(err, "failed to load configuration")

	// The daemon also logs to stdout for journald; everything else keeps
	// stdout for the user.
	logFile := logging.OpenLogFile(cfg.LogPath(), cfg.LogMaxSize)
	defer logFile.Close()
	var logOut io.Writer = logFile
	if kctx.Command() == "daemon" {
		logOut = io.MultiWriter(os.Stdout, logFile)
	}
	logger := logging.SetupLogger(cfg.LogLevel, logOut)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(os.Stdout, (*io.Writer)(nil))
	kctx.Bind(cfg, logger, logFile)
	kctx.Bind(configFile(c.Config))

	err = kctx.Run()
	if err != nil {
		logger.Error("command failed",
			slog.String("command", kctx.Command()),
			slog.String("error", err.Error()),
		)
	}
	kctx.FatalIfErrorf(err)
}

// configFile is the --config path, bound separately from the loaded config.
type configFile string

// report prints the alarm message, plus a warning when the wake alarm did
// not read back as set.
func report(out io.Writer, a *app) {
	fmt.Fprintln(out, a.service.Message())
	if !a.service.Synced() {
		fmt.Fprintln(out, "warning: wakealarm is not synchronized")
	}
}
