// Package lode archives mission transcripts in a Lode dataset.
//
// Records are JSONL, Hive-partitioned by conversation/day/record_kind:
//
//	conversation=42/day=2026-10-16/record_kind=message/...
//	conversation=none/day=2026-10-16/record_kind=metrics/...
//
// Every Write produces one snapshot. Reads scan snapshots newest first and
// use manifest paths as a coarse partition filter.
package lode

import (
	"context"
	"fmt"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/types"
)

// DefaultDataset is the dataset id used when none is configured.
const DefaultDataset = "intel"

// partitionKeys is the Hive layout of the archive.
var partitionKeys = []string{"conversation", "day", "record_kind"}

// Config identifies what an Archive writes.
type Config struct {
	// Dataset is the Lode dataset id (default "intel").
	Dataset string
	// SessionID is stamped on every record.
	SessionID string
	// ConversationID selects the conversation partition. Nil writes to
	// conversation=none.
	ConversationID *int64
}

// Archive writes and reads transcript records.
type Archive struct {
	dataset lode.Dataset
	config  Config
	metrics *metrics.Collector
}

// NewDataset creates the archive dataset over the given store factory.
// Reads and writes share the same layout and codec.
func NewDataset(id string, factory lode.StoreFactory) (lode.Dataset, error) {
	if id == "" {
		id = DefaultDataset
	}
	return lode.NewDataset(
		lode.DatasetID(id),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// NewArchive creates an archive over a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewArchive(cfg Config, factory lode.StoreFactory, m *metrics.Collector) (*Archive, error) {
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	ds, err := NewDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return &Archive{dataset: ds, config: cfg, metrics: m}, nil
}

// NewFSArchive creates an archive rooted at a local directory.
func NewFSArchive(cfg Config, root string, m *metrics.Collector) (*Archive, error) {
	return NewArchive(cfg, lode.NewFSFactory(root), m)
}

// Dataset returns the underlying dataset.
func (a *Archive) Dataset() lode.Dataset {
	return a.dataset
}

// WriteMessages appends committed messages as one snapshot.
// An empty batch is a no-op.
func (a *Archive) WriteMessages(ctx context.Context, msgs []types.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	records := make([]any, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, toMessageRecordMap(m, a.config))
	}
	return a.write(ctx, records, "messages")
}

// WriteMetrics appends a metrics snapshot taken at the given time.
func (a *Archive) WriteMetrics(ctx context.Context, snap metrics.Snapshot, at time.Time) error {
	return a.write(ctx, []any{toMetricsRecordMap(snap, a.config, at)}, "metrics")
}

func (a *Archive) write(ctx context.Context, records []any, what string) error {
	if _, err := a.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		a.metrics.IncArchiveWriteFailure()
		return WrapWriteError(err, fmt.Sprintf("%s/%s", a.config.Dataset, what))
	}
	a.metrics.IncArchiveWriteSuccess()
	return nil
}

// Close releases archive resources.
func (a *Archive) Close() error {
	return nil
}
