package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MissionRequest is the body of a mission execution call.
type MissionRequest struct {
	// UserInput is the mission query. Must be non-empty.
	UserInput string `json:"user_input" msgpack:"user_input"`
	// ConversationID threads the mission into an existing conversation.
	ConversationID *int64 `json:"conversation_id,omitempty" msgpack:"conversation_id,omitempty"`
}

// Validate checks the request before it is sent.
func (r MissionRequest) Validate() error {
	if strings.TrimSpace(r.UserInput) == "" {
		return errors.New("mission input is required")
	}
	if r.ConversationID != nil && *r.ConversationID <= 0 {
		return fmt.Errorf("conversation_id must be positive, got %d", *r.ConversationID)
	}
	return nil
}

// MissionStatus is the persisted status of a mission log.
type MissionStatus string

// Mission status constants as stored by the agent backend.
const (
	MissionStatusCompleted  MissionStatus = "COMPLETED"
	MissionStatusFailed     MissionStatus = "FAILED"
	MissionStatusPending    MissionStatus = "PENDING"
	MissionStatusInProgress MissionStatus = "IN_PROGRESS"
)

// IsValid returns true if s is a known mission status.
func (s MissionStatus) IsValid() bool {
	switch s {
	case MissionStatusCompleted, MissionStatusFailed, MissionStatusPending, MissionStatusInProgress:
		return true
	default:
		return false
	}
}

// MissionLog is a persisted record of a past mission execution.
// Owned by the agent backend; read-only here.
type MissionLog struct {
	ID             int64          `json:"id" yaml:"id"`
	ConversationID *int64         `json:"conversation_id" yaml:"conversation_id"`
	Query          *string        `json:"query" yaml:"query"`
	Response       *string        `json:"response" yaml:"response"`
	Status         *MissionStatus `json:"status" yaml:"status"`
	CreatedAt      *Timestamp     `json:"created_at" yaml:"created_at"`
}

// Validate checks enum fields that JSON decoding cannot enforce.
func (l *MissionLog) Validate() error {
	if l.Status != nil && !l.Status.IsValid() {
		return fmt.Errorf("mission log %d: invalid status %q", l.ID, *l.Status)
	}
	return nil
}

// Timestamp is a time.Time that accepts the timestamp shapes emitted by the
// agent backend: RFC 3339 with a zone, or a naive ISO 8601 value (read as UTC).
type Timestamp struct {
	time.Time
}

// naiveLayouts are tried after RFC 3339 fails.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t}, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// UnmarshalJSON parses a timestamp string.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON encodes the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// MarshalYAML encodes the timestamp as RFC 3339.
func (t Timestamp) MarshalYAML() (any, error) {
	return t.UTC().Format(time.RFC3339Nano), nil
}

// String formats the timestamp as RFC 3339.
func (t Timestamp) String() string {
	return t.UTC().Format(time.RFC3339)
}
