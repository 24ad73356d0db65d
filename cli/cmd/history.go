package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/intel/cli/render"
	"github.com/pithecene-io/intel/cli/tui"
	"github.com/pithecene-io/intel/lode"
)

// HistoryCommand returns the history command with subcommands.
// History reads the local transcript archive, never the backend.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Read archived transcripts and session metrics",
		Subcommands: []*cli.Command{
			historyMessagesCommand(),
			historyMetricsCommand(),
		},
	}
}

func historyMessagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "messages",
		Usage: "List archived transcript messages",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "conversation",
				Usage: "Conversation id, or \"none\" for missions without one",
			},
			&cli.StringFlag{
				Name:  "day",
				Usage: "Day partition (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "session-id",
				Usage: "Only messages from this CLI session",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of messages, newest kept (0 = no limit)",
			},
		),
		Action: historyMessagesAction,
	}
}

func historyMessagesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for history messages", exitUsage)
	}

	conversation := c.String("conversation")
	if conversation != "" && conversation != lode.NoConversation {
		if _, err := strconv.ParseInt(conversation, 10, 64); err != nil {
			return cli.Exit(fmt.Sprintf("invalid --conversation %q", conversation), exitUsage)
		}
	}

	s, archive, err := openHistory(c)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := archive.History(c.Context, lode.HistoryFilter{
		Conversation: conversation,
		Day:          c.String("day"),
		SessionID:    c.String("session-id"),
		Limit:        c.Int("limit"),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("read history: %v", err), exitFailure)
	}
	return r.Render(records)
}

func historyMetricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Show the latest archived session metrics",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "session-id",
				Usage: "Read metrics for a specific CLI session",
			},
		),
		Action: historyMetricsAction,
	}
}

func historyMetricsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	s, archive, err := openHistory(c)
	if err != nil {
		return err
	}
	defer s.Close()

	record, err := archive.LatestMetrics(c.Context, c.String("session-id"))
	if errors.Is(err, lode.ErrNoMetricsFound) {
		return cli.Exit(err.Error(), exitFailure)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("read metrics: %v", err), exitFailure)
	}

	snap, err := lode.DecodeMetrics(record)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewMetrics, snap)
	}
	return r.Render(snap)
}

// openHistory opens the configured archive for reading.
func openHistory(c *cli.Context) (*session, *lode.Archive, error) {
	s, err := newSession(c, nil)
	if err != nil {
		return nil, nil, err
	}
	archive, err := s.archive(c.Context, nil)
	if err != nil {
		s.Close()
		return nil, nil, cli.Exit(fmt.Sprintf("open archive: %v", err), exitUsage)
	}
	if archive == nil {
		s.Close()
		return nil, nil, cli.Exit("no archive configured: set storage.backend and storage.path in intel.yaml", exitUsage)
	}
	return s, archive, nil
}
