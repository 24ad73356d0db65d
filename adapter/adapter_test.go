package adapter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pithecene-io/intel/log"
	"github.com/pithecene-io/intel/transcript"
	"github.com/pithecene-io/intel/types"
)

func TestNewMissionCompletedEvent(t *testing.T) {
	conv := int64(9)
	meta := &types.SessionMeta{SessionID: "sess-1", ConversationID: &conv}
	ts := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		result    transcript.TurnResult
		wantError string
	}{
		{
			name: "completed",
			result: transcript.TurnResult{
				Turn: 2, Query: "q", Outcome: transcript.OutcomeCompleted, Chunks: 6, Duration: 1500 * time.Millisecond,
				Message: types.Message{Role: types.RoleAssistant, Content: "# Report", Timestamp: ts},
			},
		},
		{
			name: "failed",
			result: transcript.TurnResult{
				Turn: 3, Query: "q", Outcome: transcript.OutcomeFailed,
				Message: types.Message{Role: types.RoleAssistant, Content: "Error: server overloaded", Timestamp: ts},
			},
			wantError: "server overloaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewMissionCompletedEvent(meta, &tt.result)
			if ev.EventType != EventTypeMissionCompleted || ev.SessionID != "sess-1" || *ev.ConversationID != 9 {
				t.Errorf("event = %+v", ev)
			}
			if ev.Outcome != string(tt.result.Outcome) || ev.Turn != tt.result.Turn {
				t.Errorf("event = %+v", ev)
			}
			if ev.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", ev.Error, tt.wantError)
			}
			if ev.DurationMs != tt.result.Duration.Milliseconds() || ev.Timestamp != "2026-10-16T12:00:00Z" {
				t.Errorf("event = %+v", ev)
			}
		})
	}
}

type fakeAdapter struct {
	err       error
	published []*MissionCompletedEvent
}

func (f *fakeAdapter) Publish(_ context.Context, ev *MissionCompletedEvent) error {
	f.published = append(f.published, ev)
	return f.err
}

func (f *fakeAdapter) Close() error { return nil }

func TestNotify(t *testing.T) {
	ev := &MissionCompletedEvent{EventType: EventTypeMissionCompleted, Turn: 1, Outcome: "completed"}

	// nil adapter is a no-op
	Notify(t.Context(), nil, ev, nil)

	ok := &fakeAdapter{}
	Notify(t.Context(), ok, ev, nil)
	if len(ok.published) != 1 {
		t.Errorf("published = %d, want 1", len(ok.published))
	}

	var buf bytes.Buffer
	logger := log.NewLogger(nil).WithOutput(&buf)
	failing := &fakeAdapter{err: errors.New("unreachable")}
	Notify(t.Context(), failing, ev, logger)
	_ = logger.Sync()

	if !strings.Contains(buf.String(), "mission notification failed") {
		t.Errorf("log = %q, want failure warning", buf.String())
	}
}
