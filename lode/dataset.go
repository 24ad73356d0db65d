package lode

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/justapithecus/lode/lode"
)

// ErrNoMetricsFound is returned when no metrics record matches.
var ErrNoMetricsFound = errors.New("no metrics records found")

// HistoryFilter narrows a history query. Zero values match everything.
type HistoryFilter struct {
	// Conversation is a conversation id or NoConversation.
	Conversation string
	// Day is a YYYY-MM-DD day partition.
	Day string
	// SessionID matches the session_id field.
	SessionID string
	// Limit caps the number of returned records, keeping the newest.
	Limit int
}

// History returns archived messages in chronological order.
func (a *Archive) History(ctx context.Context, f HistoryFilter) ([]MessageRecord, error) {
	snapshots, err := a.dataset.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, a.config.Dataset+"/snapshots")
	}

	var out []MessageRecord
	for _, snap := range snapshots {
		if !snapshotMatchesFilter(snap, "record_kind", RecordKindMessage) ||
			!snapshotMatchesFilter(snap, "conversation", f.Conversation) ||
			!snapshotMatchesFilter(snap, "day", f.Day) {
			continue
		}

		data, err := a.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", a.config.Dataset, snap.ID))
		}

		// Manifest paths are a coarse pre-filter; record fields are
		// authoritative.
		for _, item := range data {
			var rec MessageRecord
			if err := decodeRecord(item, &rec); err != nil {
				return nil, err
			}
			if rec.RecordKind != RecordKindMessage {
				continue
			}
			if f.Conversation != "" && rec.Conversation != f.Conversation {
				continue
			}
			if f.Day != "" && rec.Day != f.Day {
				continue
			}
			if f.SessionID != "" && rec.SessionID != f.SessionID {
				continue
			}
			out = append(out, rec)
		}
	}

	slices.SortStableFunc(out, func(x, y MessageRecord) int {
		return x.Timestamp().Compare(y.Timestamp())
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// LatestMetrics returns the most recent metrics record, optionally for one
// session. Returns ErrNoMetricsFound if none exist.
func (a *Archive) LatestMetrics(ctx context.Context, sessionID string) (map[string]any, error) {
	snapshots, err := a.dataset.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, a.config.Dataset+"/snapshots")
	}

	var (
		latest   map[string]any
		latestTs time.Time
	)
	for _, snap := range snapshots {
		if !snapshotMatchesFilter(snap, "record_kind", RecordKindMetrics) {
			continue
		}
		data, err := a.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", a.config.Dataset, snap.ID))
		}
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || record["record_kind"] != RecordKindMetrics {
				continue
			}
			if sessionID != "" && toString(record["session_id"]) != sessionID {
				continue
			}
			if ts := recordTime(record); latest == nil || !ts.Before(latestTs) {
				latest, latestTs = record, ts
			}
		}
	}

	if latest == nil {
		return nil, ErrNoMetricsFound
	}
	return latest, nil
}

// snapshotMatchesFilter reports whether any file of the snapshot lies in
// the key=value partition. An empty value matches.
func snapshotMatchesFilter(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks for an exact key=value path segment, so that
// conversation=1 does not match conversation=10.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for part := range strings.SplitSeq(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

func recordTime(record map[string]any) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, toString(record["ts"]))
	return t
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
