package lode

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/types"
)

// Record kinds, also the last partition key.
const (
	RecordKindMessage = "message"
	RecordKindMetrics = "metrics"
)

// NoConversation is the partition value for sessions without a
// conversation id.
const NoConversation = "none"

// dayLayout formats the day partition.
const dayLayout = "2006-01-02"

// MessageRecord is the storage format of one committed transcript message.
type MessageRecord struct {
	RecordKind string              `json:"record_kind" yaml:"record_kind"`
	MessageID  string              `json:"message_id" yaml:"message_id"`
	SessionID  string              `json:"session_id" yaml:"session_id"`
	Role       string              `json:"role" yaml:"role"`
	Content    string              `json:"content" yaml:"content"`
	IsError    bool                `json:"is_error" yaml:"is_error"`
	Ts         string              `json:"ts" yaml:"ts"`
	Chunks     []types.StreamChunk `json:"chunks,omitempty" yaml:"chunks,omitempty"`

	// Partition keys
	Conversation string `json:"conversation" yaml:"conversation"`
	Day          string `json:"day" yaml:"day"`
}

// Timestamp parses Ts. Returns the zero time if Ts is malformed.
func (r *MessageRecord) Timestamp() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, r.Ts)
	return t
}

// Message converts the record back into a transcript message.
func (r *MessageRecord) Message() types.Message {
	return types.Message{
		ID:        r.MessageID,
		Role:      types.Role(r.Role),
		Content:   r.Content,
		Timestamp: r.Timestamp(),
		Chunks:    r.Chunks,
	}
}

// conversationKey is the partition value for a conversation id.
func conversationKey(id *int64) string {
	if id == nil {
		return NoConversation
	}
	return strconv.FormatInt(*id, 10)
}

// toMessageRecordMap converts a message to a map for Lode storage.
// Lode HiveLayout partitions records given as map[string]any.
func toMessageRecordMap(m types.Message, cfg Config) map[string]any {
	ts := m.Timestamp.UTC()
	rec := map[string]any{
		"record_kind":  RecordKindMessage,
		"message_id":   m.ID,
		"session_id":   cfg.SessionID,
		"role":         string(m.Role),
		"content":      m.Content,
		"is_error":     m.IsError(),
		"ts":           ts.Format(time.RFC3339Nano),
		"conversation": conversationKey(cfg.ConversationID),
		"day":          ts.Format(dayLayout),
	}
	if len(m.Chunks) > 0 {
		chunks := make([]any, 0, len(m.Chunks))
		for _, c := range m.Chunks {
			chunks = append(chunks, chunkMap(c))
		}
		rec["chunks"] = chunks
	}
	return rec
}

// chunkMap renders a chunk the way it appeared on the wire.
func chunkMap(c types.StreamChunk) map[string]any {
	m := map[string]any{"type": string(c.Type)}
	switch c.Type {
	case types.ChunkTypeThinking:
		m["content"] = c.Content
	case types.ChunkTypeTool:
		if c.Tool != nil {
			m["tool"] = *c.Tool
		}
		if c.Result != nil {
			m["result"] = *c.Result
		}
	case types.ChunkTypeComplete:
		if c.Report != nil {
			m["report"] = *c.Report
		}
	case types.ChunkTypeError:
		m["error"] = c.Error
	}
	return m
}

// toMetricsRecordMap converts a metrics snapshot to a map for Lode storage.
func toMetricsRecordMap(s metrics.Snapshot, cfg Config, at time.Time) map[string]any {
	at = at.UTC()
	chunksByType := make(map[string]any, len(s.ChunksByType))
	for k, v := range s.ChunksByType {
		chunksByType[k] = v
	}
	return map[string]any{
		"record_kind":               RecordKindMetrics,
		"session_id":                cfg.SessionID,
		"backend":                   s.Backend,
		"ts":                        at.Format(time.RFC3339Nano),
		"missions_started":          s.MissionsStarted,
		"missions_completed":        s.MissionsCompleted,
		"missions_failed":           s.MissionsFailed,
		"missions_canceled":         s.MissionsCanceled,
		"chunks_received":           s.ChunksReceived,
		"chunks_by_type":            chunksByType,
		"frames_dropped":            s.FramesDropped,
		"late_chunks":               s.LateChunks,
		"transport_errors":          s.TransportErrors,
		"stream_unavailable_errors": s.StreamUnavailableErrors,
		"network_errors":            s.NetworkErrors,
		"timeout_errors":            s.TimeoutErrors,
		"conversation":              conversationKey(cfg.ConversationID),
		"day":                       at.Format(dayLayout),
	}
}

// decodeRecord re-encodes a record read back from the JSONL codec into out.
func decodeRecord(item any, out any) error {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("re-encode record: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// DecodeMetrics converts a metrics record back into a snapshot.
func DecodeMetrics(record map[string]any) (*metrics.Snapshot, error) {
	if kind, _ := record["record_kind"].(string); kind != RecordKindMetrics {
		return nil, fmt.Errorf("not a metrics record: record_kind=%v", record["record_kind"])
	}
	var snap metrics.Snapshot
	if err := decodeRecord(record, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
