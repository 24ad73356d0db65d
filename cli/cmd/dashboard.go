package cmd

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pithecene-io/intel/cli/render"
	"github.com/pithecene-io/intel/cli/tui"
	"github.com/pithecene-io/intel/client"
	"github.com/pithecene-io/intel/types"
)

// DashboardView is the one-shot dashboard payload.
type DashboardView struct {
	Health  *types.HealthStatus `json:"health" yaml:"health"`
	Stats   *types.MissionStats `json:"stats" yaml:"stats"`
	Reports []reportRow         `json:"reports" yaml:"reports"`
}

// DashboardCommand returns the dashboard command.
func DashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Show health, stats and recent reports (live with --tui)",
		Flags: append(ReadOnlyFlags(),
			&cli.IntFlag{
				Name:  "reports",
				Usage: "Number of recent reports to include",
				Value: 5,
			},
		),
		Action: dashboardAction,
	}
}

func dashboardAction(c *cli.Context) error {
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

	if c.Bool("tui") {
		err := tui.RunDashboard(ctx, s.backend, tui.DashboardOptions{
			HealthInterval: s.config.Dashboard.HealthInterval.Duration,
			StatsInterval:  s.config.Dashboard.StatsInterval.Duration,
			ReportLimit:    c.Int("reports"),
		})
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	reqCtx, done := requestContext(ctx, s)
	defer done()

	view, err := fetchDashboard(reqCtx, s.backend, c.Int("reports"))
	if err != nil {
		return backendExit("dashboard", err)
	}
	return r.Render(view)
}

// fetchDashboard loads health, stats and reports concurrently. The first
// failure cancels the remaining calls.
func fetchDashboard(ctx context.Context, b client.Backend, reports int) (*DashboardView, error) {
	var view DashboardView
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		h, err := b.Health(ctx)
		view.Health = h
		return err
	})
	g.Go(func() error {
		st, err := b.Stats(ctx)
		view.Stats = st
		return err
	})
	g.Go(func() error {
		logs, err := b.Reports(ctx)
		if err != nil {
			return err
		}
		view.Reports = filterReports(logs, "", reports)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if view.Health == nil || view.Stats == nil {
		return nil, errors.New("backend returned an empty response")
	}
	return &view, nil
}
