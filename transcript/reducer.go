// Package transcript folds mission stream events into conversation state.
//
// A Reducer owns the ordered message list of one conversation. Each Submit
// runs one mission turn: it appends the user message, streams chunks from a
// Streamer into an accumulation buffer, and commits exactly one assistant
// message when the turn ends, whether by a terminal chunk, a transport
// failure, cancellation, or a stream that closes without a terminal chunk.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/intel/log"
	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/types"
)

// Messages committed for turns that end without a terminal chunk.
const (
	CanceledMessage      = "mission canceled"
	MissingTerminalError = "stream ended without a terminal chunk"
)

// ErrAlreadyStreaming is matched by every *AlreadyStreamingError.
var ErrAlreadyStreaming = errors.New("a mission is already streaming")

// AlreadyStreamingError rejects a Submit while another turn is in flight.
type AlreadyStreamingError struct {
	// Turn is the in-flight turn number.
	Turn uint64
}

func (e *AlreadyStreamingError) Error() string {
	return fmt.Sprintf("%s (turn %d)", ErrAlreadyStreaming, e.Turn)
}

// Is reports whether target is ErrAlreadyStreaming.
func (e *AlreadyStreamingError) Is(target error) bool {
	return target == ErrAlreadyStreaming
}

// Streamer executes one mission and delivers its chunks.
// client.Backend satisfies it.
type Streamer interface {
	ExecuteStream(ctx context.Context, req types.MissionRequest, onChunk func(types.StreamChunk), onError func(error)) error
}

// Outcome is how a turn ended.
type Outcome string

// Turn outcomes.
const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
)

// TurnResult summarizes a finished turn.
type TurnResult struct {
	Turn     uint64
	Query    string
	Outcome  Outcome
	Chunks   int
	Duration time.Duration
	Message  types.Message
}

// State is a copy of the reducer state.
type State struct {
	Messages     []types.Message
	Accumulation []types.StreamChunk
	InFlight     bool
	Turn         uint64
}

// turn tracks the in-flight mission.
type turn struct {
	id      uint64
	query   string
	started time.Time
	cancel  context.CancelFunc
	chunks  int
	result  *TurnResult
}

// Reducer is the conversation state machine: Idle -> Streaming -> Idle.
// Safe for concurrent use; deliveries from a finished or superseded turn are
// ignored.
type Reducer struct {
	mu sync.Mutex

	streamer       Streamer
	conversationID *int64
	logger         *log.Logger
	metrics        *metrics.Collector
	observer       func(Event)
	now            func() time.Time

	messages     []types.Message
	accumulation []types.StreamChunk
	inFlight     bool
	turnCount    uint64
	current      *turn
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithConversation sets the conversation id sent with requests that carry
// none.
func WithConversation(id *int64) Option {
	return func(r *Reducer) { r.conversationID = id }
}

// WithMessages seeds the transcript, e.g. from a saved session.
func WithMessages(msgs []types.Message) Option {
	return func(r *Reducer) { r.messages = slices.Clone(msgs) }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reducer) { r.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Reducer) { r.metrics = m }
}

// WithObserver registers fn to be called after every state change.
// fn runs outside the reducer lock and may call Snapshot.
func WithObserver(fn func(Event)) Option {
	return func(r *Reducer) { r.observer = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) { r.now = now }
}

// New creates an idle reducer.
func New(s Streamer, opts ...Option) *Reducer {
	r := &Reducer{
		streamer: s,
		logger:   log.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit runs one mission turn and blocks until the stream ends.
//
// It fails without touching the transcript when req is invalid or a turn is
// already in flight (*AlreadyStreamingError). Otherwise the turn always
// commits one assistant message and its result is returned; mission
// failures are reported through the result, not the error.
func (r *Reducer) Submit(ctx context.Context, req types.MissionRequest) (*TurnResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.inFlight {
		id := r.current.id
		r.mu.Unlock()
		return nil, &AlreadyStreamingError{Turn: id}
	}
	if req.ConversationID == nil {
		req.ConversationID = r.conversationID
	}

	turnCtx, cancel := context.WithCancel(ctx)
	r.turnCount++
	t := &turn{id: r.turnCount, query: req.UserInput, started: r.now(), cancel: cancel}
	user := types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleUser,
		Content:   req.UserInput,
		Timestamp: t.started,
	}
	r.messages = append(r.messages, user)
	r.accumulation = nil
	r.inFlight = true
	r.current = t
	r.mu.Unlock()

	r.metrics.IncMissionStarted()
	r.logger.Info("mission started", map[string]any{"turn": t.id})
	r.notify(Event{Kind: EventUserMessage, Turn: t.id, Message: &user, InFlight: true})

	err := r.streamer.ExecuteStream(turnCtx, req,
		func(chunk types.StreamChunk) { r.HandleChunk(t.id, chunk) },
		func(err error) { r.HandleError(t.id, err) },
	)
	cancel()

	r.finish(t, err)

	r.mu.Lock()
	result := *t.result
	r.mu.Unlock()
	return &result, nil
}

// HandleChunk applies one decoded chunk to the given turn.
// Chunks for any turn other than the in-flight one are ignored.
func (r *Reducer) HandleChunk(turnID uint64, chunk types.StreamChunk) {
	r.mu.Lock()
	t, ok := r.activeLocked(turnID)
	if !ok {
		r.mu.Unlock()
		r.metrics.IncLateChunk()
		r.logger.Debug("ignoring late chunk", map[string]any{"turn": turnID, "type": string(chunk.Type)})
		return
	}

	var ev Event
	switch chunk.Type {
	case types.ChunkTypeThinking, types.ChunkTypeTool:
		t.chunks++
		r.accumulation = append(r.accumulation, chunk)
		ev = Event{Kind: EventChunk, Turn: turnID, Chunk: &chunk, InFlight: true}
	case types.ChunkTypeComplete:
		t.chunks++
		ev = r.commitLocked(t, chunk.ReportText(), slices.Clone(r.accumulation), OutcomeCompleted)
	case types.ChunkTypeError:
		t.chunks++
		ev = r.commitLocked(t, types.ErrorPrefix+chunk.Error, nil, OutcomeFailed)
	default:
		r.mu.Unlock()
		r.logger.Warn("ignoring chunk of unknown type", map[string]any{"type": string(chunk.Type)})
		return
	}
	r.mu.Unlock()

	r.notify(ev)
}

// HandleError records a transport failure for the given turn.
func (r *Reducer) HandleError(turnID uint64, err error) {
	r.mu.Lock()
	t, ok := r.activeLocked(turnID)
	if !ok {
		r.mu.Unlock()
		r.logger.Debug("ignoring late error", map[string]any{"turn": turnID, "error": err.Error()})
		return
	}
	ev := r.commitLocked(t, types.ErrorPrefix+err.Error(), nil, OutcomeFailed)
	r.mu.Unlock()

	r.notify(ev)
}

// Cancel aborts the in-flight turn and commits a cancellation message.
// Returns false if no turn is in flight.
func (r *Reducer) Cancel() bool {
	r.mu.Lock()
	if !r.inFlight {
		r.mu.Unlock()
		return false
	}
	t := r.current
	ev := r.commitLocked(t, types.ErrorPrefix+CanceledMessage, nil, OutcomeCanceled)
	r.mu.Unlock()

	t.cancel()
	r.notify(ev)
	return true
}

// Snapshot returns a copy of the current state.
func (r *Reducer) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return State{
		Messages:     slices.Clone(r.messages),
		Accumulation: slices.Clone(r.accumulation),
		InFlight:     r.inFlight,
		Turn:         r.turnCount,
	}
}

// Messages returns a copy of the committed messages.
func (r *Reducer) Messages() []types.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}

// InFlight reports whether a turn is streaming.
func (r *Reducer) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// finish closes a turn whose stream returned without committing.
func (r *Reducer) finish(t *turn, err error) {
	r.mu.Lock()
	if _, ok := r.activeLocked(t.id); !ok {
		r.mu.Unlock()
		return
	}

	var ev Event
	switch {
	case err == nil:
		ev = r.commitLocked(t, types.ErrorPrefix+MissingTerminalError, nil, OutcomeFailed)
	case errors.Is(err, context.Canceled):
		ev = r.commitLocked(t, types.ErrorPrefix+CanceledMessage, nil, OutcomeCanceled)
	default:
		ev = r.commitLocked(t, types.ErrorPrefix+err.Error(), nil, OutcomeFailed)
	}
	r.mu.Unlock()

	r.notify(ev)
}

func (r *Reducer) activeLocked(turnID uint64) (*turn, bool) {
	if !r.inFlight || r.current == nil || r.current.id != turnID {
		return nil, false
	}
	return r.current, true
}

// commitLocked appends the assistant message, clears the accumulation and
// returns to Idle. Callers hold r.mu.
func (r *Reducer) commitLocked(t *turn, content string, chunks []types.StreamChunk, outcome Outcome) Event {
	msg := types.Message{
		ID:        uuid.NewString(),
		Role:      types.RoleAssistant,
		Content:   content,
		Timestamp: r.now(),
		Chunks:    chunks,
	}
	r.messages = append(r.messages, msg)
	r.accumulation = nil
	r.inFlight = false

	t.result = &TurnResult{
		Turn:     t.id,
		Query:    t.query,
		Outcome:  outcome,
		Chunks:   t.chunks,
		Duration: msg.Timestamp.Sub(t.started),
		Message:  msg,
	}

	switch outcome {
	case OutcomeCompleted:
		r.metrics.IncMissionCompleted()
	case OutcomeFailed:
		r.metrics.IncMissionFailed()
	case OutcomeCanceled:
		r.metrics.IncMissionCanceled()
	}
	r.logger.Info("mission finished", map[string]any{
		"turn":     t.id,
		"outcome":  string(outcome),
		"chunks":   t.chunks,
		"duration": t.result.Duration.String(),
	})

	return Event{Kind: EventCommitted, Turn: t.id, Message: &msg, Outcome: outcome}
}

func (r *Reducer) notify(ev Event) {
	if r.observer != nil {
		r.observer(ev)
	}
}
