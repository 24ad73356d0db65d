package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/intel/cli/render"
	"github.com/pithecene-io/intel/cli/tui"
)

// StatsCommand returns the stats command.
// Stats are derived from the backend counters: in-progress missions are
// whatever is neither completed nor failed.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show mission statistics",
		Flags:  append(ReadOnlyFlags(), watchFlags()...),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if c.Bool("tui") && c.Bool("watch") {
		return cli.Exit("--tui and --watch cannot be combined; use the dashboard command", exitUsage)
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

		stats, err := s.backend.Stats(reqCtx)
		if err != nil {
			return backendExit("stats", err)
		}
		if c.Bool("tui") {
			return r.RenderTUI(tui.ViewStats, stats)
		}
		return r.Render(stats)
	}

	if !c.Bool("watch") {
		return once(ctx)
	}
	return watch(ctx, interval(c, s.config.Dashboard.StatsInterval.Duration), once)
}
