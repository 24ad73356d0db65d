package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/intel/adapter"
	"github.com/pithecene-io/intel/cli/render"
	"github.com/pithecene-io/intel/cli/tui"
	"github.com/pithecene-io/intel/lode"
	"github.com/pithecene-io/intel/log"
	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/transcript"
	"github.com/pithecene-io/intel/types"
)

// persistTimeout bounds archive writes and notifications after a turn.
// They run even when the mission itself was canceled.
const persistTimeout = 30 * time.Second

// MissionCommand returns the mission command.
// This is the only command that starts work on the backend.
func MissionCommand() *cli.Command {
	return &cli.Command{
		Name:      "mission",
		Usage:     "Run a market intelligence mission and stream its progress",
		ArgsUsage: "<query>",
		Flags: append(ReadOnlyFlags(),
			&cli.Int64Flag{
				Name:  "conversation",
				Usage: "Continue an existing backend conversation",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Session file to resume from and save to",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print session metrics to stderr when done",
			},
		),
		Action: missionAction,
	}
}

func missionAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	interactive := c.Bool("tui")
	if query == "" && !interactive {
		return cli.Exit("mission requires a query (or --tui for the interactive terminal)", exitUsage)
	}

	var (
		resumed        *transcript.Session
		conversationID *int64
	)
	if path := c.String("session"); path != "" {
		resumed, err = transcript.LoadSessionFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			resumed = nil
		case err != nil:
			return cli.Exit(fmt.Sprintf("load session: %v", err), exitUsage)
		default:
			conversationID = resumed.ConversationID
		}
	}
	if c.IsSet("conversation") {
		id := c.Int64("conversation")
		conversationID = &id
	}

	s, err := newSession(c, conversationID)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	archive, err := s.archive(ctx, conversationID)
	if err != nil {
		return cli.Exit(fmt.Sprintf("open archive: %v", err), exitUsage)
	}
	notifier, err := s.notifier()
	if err != nil {
		return cli.Exit(fmt.Sprintf("configure adapter: %v", err), exitUsage)
	}

	opts := []transcript.Option{
		transcript.WithLogger(s.logger),
		transcript.WithMetrics(s.metrics),
	}
	if resumed != nil {
		opts = append(opts, resumed.Options()...)
	}
	opts = append(opts, transcript.WithConversation(conversationID))

	sink := &turnSink{
		archive:  archive,
		notifier: notifier,
		meta:     s.meta,
		logger:   s.logger,
	}
	if resumed != nil {
		sink.archived = len(resumed.Messages)
	}

	var (
		reducer *transcript.Reducer
		runErr  error
		outcome transcript.Outcome
	)
	if interactive {
		bridge := tui.NewEventBridge()
		reducer = transcript.New(s.backend, append(opts, transcript.WithObserver(bridge.Observe))...)
		sink.reducer = reducer
		runErr = tui.RunAgent(ctx, reducer, bridge, func(res *transcript.TurnResult) {
			sink.afterTurn(ctx, res)
		})
		outcome = sink.lastOutcome()
	} else {
		printer := &streamPrinter{renderer: r, logger: s.logger}
		reducer = transcript.New(s.backend, append(opts, transcript.WithObserver(printer.observe))...)
		sink.reducer = reducer

		res, err := reducer.Submit(ctx, types.MissionRequest{UserInput: query, ConversationID: conversationID})
		if err != nil {
			return cli.Exit(err.Error(), exitUsage)
		}
		sink.afterTurn(ctx, res)
		outcome = res.Outcome
	}

	sink.writeMetrics(ctx, s.metrics.Snapshot())

	if path := c.String("session"); path != "" {
		if err := transcript.SaveSessionFile(path, transcript.NewSession(s.meta, reducer)); err != nil {
			s.logger.Error("failed to save session", map[string]any{"path": path, "error": err.Error()})
		}
	}

	if c.Bool("stats") {
		snap := s.metrics.Snapshot()
		if err := render.NewRendererWithWriter(r.Format(), c.Bool("no-color"), errWriter).Render(&snap); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if outcome != "" && outcome != transcript.OutcomeCompleted {
		return cli.Exit("", exitFailure)
	}
	return nil
}

// streamPrinter renders reducer events as they happen.
type streamPrinter struct {
	renderer *render.Renderer
	logger   *log.Logger
}

func (p *streamPrinter) observe(ev transcript.Event) {
	var err error
	switch ev.Kind {
	case transcript.EventChunk:
		if ev.Chunk != nil {
			err = p.renderer.RenderChunk(*ev.Chunk)
		}
	case transcript.EventCommitted:
		err = p.renderer.RenderMessage(*ev.Message)
	}
	if err != nil {
		p.logger.Warn("render failed", map[string]any{"event": ev.Kind.String(), "error": err.Error()})
	}
}

// turnSink archives committed messages and publishes completion events.
type turnSink struct {
	reducer  *transcript.Reducer
	archive  *lode.Archive
	notifier adapter.Adapter
	meta     *types.SessionMeta
	logger   *log.Logger

	mu       sync.Mutex
	archived int
	outcome  transcript.Outcome
}

// afterTurn runs once per finished turn. Failures are logged, never fatal.
func (t *turnSink) afterTurn(ctx context.Context, res *transcript.TurnResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	t.mu.Lock()
	t.outcome = res.Outcome
	msgs := t.reducer.Messages()
	pending := msgs[min(t.archived, len(msgs)):]
	t.archived = len(msgs)
	t.mu.Unlock()

	if t.archive != nil && len(pending) > 0 {
		if err := t.archive.WriteMessages(ctx, pending); err != nil {
			t.logger.Error("archive write failed", map[string]any{"messages": len(pending), "error": err.Error()})
		}
	}

	adapter.Notify(ctx, t.notifier, adapter.NewMissionCompletedEvent(t.meta, res), t.logger)
}

// writeMetrics archives the session counters once, at exit.
func (t *turnSink) writeMetrics(ctx context.Context, snap metrics.Snapshot) {
	if t.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := t.archive.WriteMetrics(ctx, snap, time.Now()); err != nil {
		t.logger.Error("archive metrics write failed", map[string]any{"error": err.Error()})
	}
}

func (t *turnSink) lastOutcome() transcript.Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}
