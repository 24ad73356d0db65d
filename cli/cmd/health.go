package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/intel/cli/render"
	"github.com/pithecene-io/intel/cli/tui"
)

// watchFlags returns the --watch flags for polling commands.
func watchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Poll and re-render until interrupted",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "Polling interval for --watch (default from config)",
		},
	}
}

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Show agent backend health",
		Flags:  append(ReadOnlyFlags(), watchFlags()...),
		Action: healthAction,
	}
}

func healthAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	s, err := newSession(c, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	once := func(ctx context.Context) error {
		reqCtx, done := requestContext(ctx, s)
		defer done()

		status, err := s.backend.Health(reqCtx)
		if err != nil {
			return backendExit("health", err)
		}
		if c.Bool("tui") {
			return r.RenderTUI(tui.ViewHealth, status)
		}
		return r.Render(status)
	}

	if !c.Bool("watch") {
		return once(ctx)
	}
	return watch(ctx, interval(c, s.config.Dashboard.HealthInterval.Duration), once)
}

// watch runs fn immediately and then every d until ctx is done.
// Failures are reported and polling continues.
func watch(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintln(errWriter, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func interval(c *cli.Context, def time.Duration) time.Duration {
	if d := c.Duration("interval"); d > 0 {
		return d
	}
	return def
}

// backendExit maps a backend failure to the failure exit code.
func backendExit(what string, err error) error {
	return cli.Exit(fmt.Sprintf("%s: %v", what, err), exitFailure)
}
