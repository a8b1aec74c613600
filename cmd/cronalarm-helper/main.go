// main.go is the privileged helper for cronalarm.
// It runs as root and writes the RTC wake alarm on behalf of unprivileged
// cronalarm processes, which reach it over a Unix domain socket.
package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/nejstastnejsistene/cronalarm/internal/helper"
	"github.com/nejstastnejsistene/cronalarm/internal/logging"
	"github.com/nejstastnejsistene/cronalarm/internal/rtc"
	"github.com/nejstastnejsistene/cronalarm/internal/version"
)

type cli struct {
	Version  kong.VersionFlag `help:"Show version information."`
	Socket   string           `default:"${socket}" help:"Unix socket to listen on."`
	Device   string           `default:"rtc0" help:"RTC device under /sys/class/rtc."`
	Group    int              `default:"-1" help:"Group allowed to connect. -1 keeps the socket root-only."`
	LogLevel string           `default:"info" enum:"debug,info,warn,error" help:"Log level."`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("cronalarm-helper"),
		kong.Description("Privileged wake alarm helper for cronalarm"),
		kong.Vars{
			"version": version.Info("cronalarm-helper"),
			"socket":  helper.SocketPath,
		},
	)

	logger := logging.SetupLogger(c.LogLevel, os.Stdout)
	if err := run(c, logger); err != nil {
		logger.Error("helper failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(c cli, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(c.Socket), 0755); err != nil {
		return err
	}

	// Remove a stale socket from a previous run
	os.Remove(c.Socket)

	listener, err := net.Listen("unix", c.Socket)
	if err != nil {
		return err
	}
	defer os.Remove(c.Socket)

	mode := os.FileMode(0600)
	if c.Group >= 0 {
		if err := os.Chown(c.Socket, 0, c.Group); err != nil {
			listener.Close()
			return err
		}
		mode = 0660
	}
	if err := os.Chmod(c.Socket, mode); err != nil {
		listener.Close()
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger.Info("helper started",
		slog.String("socket", c.Socket),
		slog.String("device", c.Device),
	)
	err = helper.Serve(ctx, listener, rtc.NewSysfs(afero.NewOsFs(), c.Device), logger)
	logger.Info("helper shutting down")
	return err
}
