package transcript

import "github.com/pithecene-io/intel/types"

// EventKind identifies a reducer state change.
type EventKind int

// Event kinds.
const (
	// EventUserMessage: a turn started and the user message was appended.
	EventUserMessage EventKind = iota
	// EventChunk: a non-terminal chunk was accumulated.
	EventChunk
	// EventCommitted: the turn ended and an assistant message was appended.
	EventCommitted
)

func (k EventKind) String() string {
	switch k {
	case EventUserMessage:
		return "user_message"
	case EventChunk:
		return "chunk"
	case EventCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Event describes one state change.
type Event struct {
	Kind EventKind
	Turn uint64
	// Message is set for EventUserMessage and EventCommitted.
	Message *types.Message
	// Chunk is set for EventChunk.
	Chunk *types.StreamChunk
	// Outcome is set for EventCommitted.
	Outcome Outcome
	// InFlight is the state after the change.
	InFlight bool
}
