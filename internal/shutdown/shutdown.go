// Package shutdown stops the daemon's components in reverse order of
// registration, so the resync runner stops before the log it writes to
// is closed.
//
// Usage:
//
//	coord := shutdown.NewCoordinator(logger)
//	coord.Register("log", shutdown.Closer(logFile))
//	coord.Register("resync", d)
//	// On shutdown:
//	coord.Shutdown(ctx) // Stops resync first, then closes the log
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Shutdowner is the interface that components must implement to participate
// in coordinated shutdown.
type Shutdowner interface {
	// Shutdown gracefully stops the component. It should respect the context's
	// deadline and return ctx.Err() if it cannot complete in time.
	Shutdown(ctx context.Context) error
}

// Func adapts a function to Shutdowner.
type Func func(ctx context.Context) error

// Shutdown calls f.
func (f Func) Shutdown(ctx context.Context) error { return f(ctx) }

// Closer adapts an io.Closer, such as the log file, to Shutdowner.
func Closer(c io.Closer) Shutdowner {
	return Func(func(context.Context) error { return c.Close() })
}

type component struct {
	name       string
	shutdowner Shutdowner
}

// Coordinator manages ordered shutdown of multiple components.
type Coordinator struct {
	components []component
	logger     *slog.Logger
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	return &Coordinator{
		logger: logger.With(slog.String("component", "shutdown")),
	}
}

// Register adds a component to be shut down. Components are shut down
// in reverse order of registration (LIFO - last in, first out).
func (c *Coordinator) Register(name string, s Shutdowner) {
	c.components = append(c.components, component{
		name:       name,
		shutdowner: s,
	})
	c.logger.Debug("registered shutdown handler",
		slog.String("handler", name),
	)
}

// Shutdown stops all registered components in reverse order. A failing
// component does not stop the rest; all failures are joined in the result.
// Once ctx is done the remaining components are skipped.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.logger.Info("starting coordinated shutdown",
		slog.Int("components", len(c.components)),
	)

	var errs []error
	for i := len(c.components) - 1; i >= 0; i-- {
		comp := c.components[i]

		if ctx.Err() != nil {
			c.logger.Error("shutdown deadline exceeded",
				slog.String("remaining_component", comp.name),
			)
			errs = append(errs, fmt.Errorf("shutdown deadline exceeded at component %s: %w", comp.name, ctx.Err()))
			break
		}

		start := time.Now()
		err := comp.shutdowner.Shutdown(ctx)
		attrs := []any{
			slog.String("handler", comp.name),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			c.logger.Error("component shutdown failed", append(attrs, slog.String("error", err.Error()))...)
			errs = append(errs, fmt.Errorf("failed to shutdown %s: %w", comp.name, err))
			continue
		}
		c.logger.Info("component shutdown complete", attrs...)
	}

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Warn("coordinated shutdown completed with errors")
	} else {
		c.logger.Info("coordinated shutdown complete")
	}
	return err
}

// ComponentCount returns the number of registered components.
func (c *Coordinator) ComponentCount() int {
	return len(c.components)
}
