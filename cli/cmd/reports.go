package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/intel/cli/render"
	"github.com/pithecene-io/intel/types"
)

// ReportsCommand returns the reports command with subcommands.
func ReportsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reports",
		Usage: "List and show persisted mission reports",
		Subcommands: []*cli.Command{
			reportsListCommand(),
			reportsShowCommand(),
		},
	}
}

func reportsListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List mission reports",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by status: COMPLETED, FAILED, PENDING, IN_PROGRESS",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of reports to return (0 = no limit)",
				Value: 0,
			},
		),
		Action: reportsListAction,
	}
}

// reportRow is the thin list view of a mission log.
type reportRow struct {
	ID             int64            `json:"id" yaml:"id"`
	ConversationID *int64           `json:"conversation_id" yaml:"conversation_id"`
	Status         string           `json:"status" yaml:"status"`
	Query          string           `json:"query" yaml:"query"`
	CreatedAt      *types.Timestamp `json:"created_at" yaml:"created_at"`
}

func reportsListAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for reports list", exitUsage)
	}

	status := types.MissionStatus(c.String("status"))
	if status != "" && !status.IsValid() {
		return cli.Exit(fmt.Sprintf("invalid --status %q", status), exitUsage)
	}

	s, err := newSession(c, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := requestContext(c.Context, s)
	defer cancel()

	logs, err := s.backend.Reports(ctx)
	if err != nil {
		return backendExit("reports", err)
	}

	rows := filterReports(logs, status, c.Int("limit"))
	if len(rows) > listWarningThreshold && c.Int("limit") == 0 && isStderrTTY() {
		fmt.Fprintf(errWriter, "Warning: %d reports returned. Use --limit to reduce output.\n", len(rows))
	}
	return r.Render(rows)
}

// filterReports returns rows newest first, filtered by status.
func filterReports(logs []types.MissionLog, status types.MissionStatus, limit int) []reportRow {
	sorted := slices.Clone(logs)
	slices.SortStableFunc(sorted, func(a, b types.MissionLog) int {
		switch {
		case a.CreatedAt == nil && b.CreatedAt == nil:
			return 0
		case a.CreatedAt == nil:
			return 1
		case b.CreatedAt == nil:
			return -1
		default:
			return b.CreatedAt.Compare(a.CreatedAt.Time)
		}
	})

	rows := make([]reportRow, 0, len(sorted))
	for _, l := range sorted {
		row := reportRow{ID: l.ID, ConversationID: l.ConversationID, CreatedAt: l.CreatedAt}
		if l.Status != nil {
			row.Status = string(*l.Status)
		}
		if status != "" && row.Status != string(status) {
			continue
		}
		if l.Query != nil {
			row.Query = *l.Query
		}
		rows = append(rows, row)
		if limit > 0 && len(rows) == limit {
			break
		}
	}
	return rows
}

func reportsShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one mission report",
		ArgsUsage: "<id>",
		Flags:     ReadOnlyFlags(),
		Action:    reportsShowAction,
	}
}

func reportsShowAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for reports show", exitUsage)
	}
	if c.NArg() != 1 {
		return cli.Exit("reports show requires exactly one report id", exitUsage)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid report id %q", c.Args().First()), exitUsage)
	}

	s, err := newSession(c, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := requestContext(c.Context, s)
	defer cancel()

	logs, err := s.backend.Reports(ctx)
	if err != nil {
		return backendExit("reports", err)
	}

	idx := slices.IndexFunc(logs, func(l types.MissionLog) bool { return l.ID == id })
	if idx < 0 {
		return cli.Exit(fmt.Sprintf("report %d not found", id), exitFailure)
	}
	return r.Render(&logs[idx])
}
