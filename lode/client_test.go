package lode

import (
	"errors"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/types"
)

// sharedFactory returns a StoreFactory that always returns the given store.
func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

// toInt64 converts a decoded JSON number for assertions on raw records.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

func newMemoryArchive(t *testing.T, cfg Config, m *metrics.Collector) *Archive {
	t.Helper()
	a, err := NewArchive(cfg, sharedFactory(lode.NewMemory()), m)
	if err != nil {
		t.Fatalf("NewArchive: %v", err)
	}
	return a
}

func turn(base time.Time, query, answer string, chunks ...types.StreamChunk) []types.Message {
	return []types.Message{
		{ID: query, Role: types.RoleUser, Content: query, Timestamp: base},
		{ID: query + "-a", Role: types.RoleAssistant, Content: answer, Timestamp: base.Add(time.Second), Chunks: chunks},
	}
}

func TestArchive_WriteAndHistory(t *testing.T) {
	conv := int64(42)
	m := metrics.NewCollector("mock", "sess-1")
	a := newMemoryArchive(t, Config{SessionID: "sess-1", ConversationID: &conv}, m)

	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	tool := "web_search"
	first := turn(base, "q1", "report one", types.ThinkingChunk("plan"), types.ToolChunk(&tool, nil))
	second := turn(base.Add(time.Minute), "q2", "Error: boom")

	if err := a.WriteMessages(t.Context(), first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.WriteMessages(t.Context(), second); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.WriteMessages(t.Context(), nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}

	got, err := a.History(t.Context(), HistoryFilter{Conversation: "42"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("records = %d, want 4", len(got))
	}
	wantContent := []string{"q1", "report one", "q2", "Error: boom"}
	for i, rec := range got {
		if rec.Content != wantContent[i] {
			t.Errorf("record %d content = %q, want %q", i, rec.Content, wantContent[i])
		}
		if rec.Conversation != "42" || rec.Day != "2026-10-16" || rec.SessionID != "sess-1" {
			t.Errorf("record %d partition = %+v", i, rec)
		}
	}
	if !got[3].IsError || got[1].IsError {
		t.Error("is_error not preserved")
	}

	msg := got[1].Message()
	if len(msg.Chunks) != 2 || msg.Chunks[0].Content != "plan" || *msg.Chunks[1].Tool != "web_search" || msg.Chunks[1].Result != nil {
		t.Errorf("chunks = %+v", msg.Chunks)
	}
	if !msg.Timestamp.Equal(base.Add(time.Second)) {
		t.Errorf("timestamp = %v", msg.Timestamp)
	}

	if snap := m.Snapshot(); snap.ArchiveWriteSuccess != 2 {
		t.Errorf("ArchiveWriteSuccess = %d, want 2", snap.ArchiveWriteSuccess)
	}
}

func TestArchive_HistoryFilters(t *testing.T) {
	a := newMemoryArchive(t, Config{SessionID: "s"}, nil)
	base := time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC)

	if err := a.WriteMessages(t.Context(), turn(base, "late", "a")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.WriteMessages(t.Context(), turn(base.Add(2*time.Minute), "early", "b")); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name   string
		filter HistoryFilter
		want   int
	}{
		{"all", HistoryFilter{}, 4},
		{"no conversation", HistoryFilter{Conversation: NoConversation}, 4},
		{"other conversation", HistoryFilter{Conversation: "1"}, 0},
		{"day", HistoryFilter{Day: "2026-10-16"}, 2},
		{"session", HistoryFilter{SessionID: "other"}, 0},
		{"limit", HistoryFilter{Limit: 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.History(t.Context(), tt.filter)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("records = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestArchive_LatestMetrics(t *testing.T) {
	a := newMemoryArchive(t, Config{SessionID: "sess-1"}, nil)

	if _, err := a.LatestMetrics(t.Context(), ""); !errors.Is(err, ErrNoMetricsFound) {
		t.Fatalf("empty archive error = %v, want ErrNoMetricsFound", err)
	}

	at := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	if err := a.WriteMetrics(t.Context(), metrics.Snapshot{MissionsStarted: 1, Backend: "mock"}, at); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.WriteMetrics(t.Context(), metrics.Snapshot{MissionsStarted: 3, Backend: "mock"}, at.Add(time.Minute)); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := a.LatestMetrics(t.Context(), "sess-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if toInt64(got["missions_started"]) != 3 || got["backend"] != "mock" {
		t.Errorf("record = %v", got)
	}

	snap, err := DecodeMetrics(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.MissionsStarted != 3 || snap.Backend != "mock" {
		t.Errorf("snapshot = %+v", snap)
	}
	if _, err := DecodeMetrics(map[string]any{"record_kind": RecordKindMessage}); err == nil {
		t.Error("message record must not decode as metrics")
	}

	if _, err := a.LatestMetrics(t.Context(), "other"); !errors.Is(err, ErrNoMetricsFound) {
		t.Errorf("unknown session error = %v", err)
	}

	// Metrics records never show up as history.
	hist, err := a.History(t.Context(), HistoryFilter{})
	if err != nil || len(hist) != 0 {
		t.Errorf("history = %v, %v", hist, err)
	}
}

func TestNewFSArchive(t *testing.T) {
	a, err := NewFSArchive(Config{}, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFSArchive: %v", err)
	}
	if a.Dataset().ID() != DefaultDataset {
		t.Errorf("dataset id = %q, want %q", a.Dataset().ID(), DefaultDataset)
	}
	if err := a.WriteMessages(t.Context(), turn(time.Now(), "q", "a")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := a.History(t.Context(), HistoryFilter{})
	if err != nil || len(got) != 2 {
		t.Errorf("history = %d records, err %v", len(got), err)
	}
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		in, bucket, prefix string
	}{
		{"bucket", "bucket", ""},
		{"bucket/archive/intel", "bucket", "archive/intel"},
		{"s3://bucket/prefix/", "bucket", "prefix"},
	}
	for _, tt := range tests {
		bucket, prefix := ParseS3Path(tt.in)
		if bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("ParseS3Path(%q) = %q, %q", tt.in, bucket, prefix)
		}
	}

	cfg := S3Config{}
	if cfg.Validate() == nil {
		t.Error("expected missing bucket error")
	}
}

func TestMatchesPartitionValue(t *testing.T) {
	path := "intel/conversation=1/day=2026-10-16/record_kind=message/data.jsonl"
	if !matchesPartitionValue(path, "conversation", "1") {
		t.Error("expected match")
	}
	if matchesPartitionValue("intel/conversation=10/day=x", "conversation", "1") {
		t.Error("conversation=1 must not match conversation=10")
	}
}
