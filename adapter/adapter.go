// Package adapter publishes mission completion notifications.
//
// After every mission turn the CLI builds a MissionCompletedEvent and hands
// it to the configured Adapter. Delivery is best effort: failures are logged
// and never change the outcome of the mission.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/intel/log"
	"github.com/pithecene-io/intel/transcript"
	"github.com/pithecene-io/intel/types"
)

// EventTypeMissionCompleted is the event_type of every published event.
const EventTypeMissionCompleted = "mission_completed"

// MissionCompletedEvent is the payload published when a mission turn ends.
type MissionCompletedEvent struct {
	EventType      string `json:"event_type"`
	ClientVersion  string `json:"client_version"`
	SessionID      string `json:"session_id"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
	Turn           uint64 `json:"turn"`
	Query          string `json:"query"`
	Outcome        string `json:"outcome"` // completed, failed, canceled
	Error          string `json:"error,omitempty"`
	ChunkCount     int    `json:"chunk_count"`
	DurationMs     int64  `json:"duration_ms"`
	Timestamp      string `json:"timestamp"` // RFC 3339
}

// NewMissionCompletedEvent builds the event for a finished turn.
func NewMissionCompletedEvent(meta *types.SessionMeta, res *transcript.TurnResult) *MissionCompletedEvent {
	ev := &MissionCompletedEvent{
		EventType:     EventTypeMissionCompleted,
		ClientVersion: types.Version,
		Turn:          res.Turn,
		Query:         res.Query,
		Outcome:       string(res.Outcome),
		ChunkCount:    res.Chunks,
		DurationMs:    res.Duration.Milliseconds(),
		Timestamp:     res.Message.Timestamp.UTC().Format(time.RFC3339),
	}
	if meta != nil {
		ev.SessionID = meta.SessionID
		ev.ConversationID = meta.ConversationID
	}
	if res.Message.IsError() {
		ev.Error = res.Message.Content[len(types.ErrorPrefix):]
	}
	return ev
}

// Adapter publishes mission completion events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation and
	// deadlines.
	Publish(ctx context.Context, event *MissionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Notify publishes event through a and logs the outcome.
// A nil adapter is a no-op. Errors are logged, not returned.
func Notify(ctx context.Context, a Adapter, event *MissionCompletedEvent, logger *log.Logger) {
	if a == nil {
		return
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if err := a.Publish(ctx, event); err != nil {
		logger.Warn("mission notification failed", map[string]any{
			"turn":    event.Turn,
			"outcome": event.Outcome,
			"error":   err.Error(),
		})
		return
	}
	logger.Debug("mission notification published", map[string]any{
		"turn":    event.Turn,
		"outcome": event.Outcome,
	})
}
