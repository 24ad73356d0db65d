// Package metrics provides per-session counters for mission streaming.
//
// The Collector accumulates counters for every mission a session runs. It is
// a leaf package with no internal dependencies; chunk types are recorded as
// plain strings.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of the session counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	// Mission lifecycle
	MissionsStarted   int64 `json:"missions_started" yaml:"missions_started"`
	MissionsCompleted int64 `json:"missions_completed" yaml:"missions_completed"`
	MissionsFailed    int64 `json:"missions_failed" yaml:"missions_failed"`
	MissionsCanceled  int64 `json:"missions_canceled" yaml:"missions_canceled"`

	// Stream
	ChunksReceived int64            `json:"chunks_received" yaml:"chunks_received"`
	ChunksByType   map[string]int64 `json:"chunks_by_type" yaml:"chunks_by_type"`
	FramesDropped  int64            `json:"frames_dropped" yaml:"frames_dropped"`
	LateChunks     int64            `json:"late_chunks" yaml:"late_chunks"`

	// Failures by class
	TransportErrors         int64 `json:"transport_errors" yaml:"transport_errors"`
	StreamUnavailableErrors int64 `json:"stream_unavailable_errors" yaml:"stream_unavailable_errors"`
	NetworkErrors           int64 `json:"network_errors" yaml:"network_errors"`
	TimeoutErrors           int64 `json:"timeout_errors" yaml:"timeout_errors"`

	// Lode / archive
	ArchiveWriteSuccess int64 `json:"archive_write_success" yaml:"archive_write_success"`
	ArchiveWriteFailure int64 `json:"archive_write_failure" yaml:"archive_write_failure"`

	// Dimensions (informational, set at construction)
	Backend   string `json:"backend" yaml:"backend"`
	SessionID string `json:"session_id" yaml:"session_id"`
}

// Collector accumulates metrics during a session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	missionsStarted   int64
	missionsCompleted int64
	missionsFailed    int64
	missionsCanceled  int64

	chunksReceived int64
	chunksByType   map[string]int64
	framesDropped  int64
	lateChunks     int64

	transportErrors         int64
	streamUnavailableErrors int64
	networkErrors           int64
	timeoutErrors           int64

	archiveWriteSuccess int64
	archiveWriteFailure int64

	backend   string
	sessionID string
}

// NewCollector creates a Collector with dimension labels.
// backend is "http" or "mock".
func NewCollector(backend, sessionID string) *Collector {
	return &Collector{
		chunksByType: make(map[string]int64),
		backend:      backend,
		sessionID:    sessionID,
	}
}

func (c *Collector) inc(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// --- Mission lifecycle ---

// IncMissionStarted records a submitted mission.
func (c *Collector) IncMissionStarted() {
	if c == nil {
		return
	}
	c.inc(&c.missionsStarted)
}

// IncMissionCompleted records a turn that ended with a complete chunk.
func (c *Collector) IncMissionCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.missionsCompleted)
}

// IncMissionFailed records a turn that ended with an error chunk or a fatal error.
func (c *Collector) IncMissionFailed() {
	if c == nil {
		return
	}
	c.inc(&c.missionsFailed)
}

// IncMissionCanceled records a turn aborted by the caller.
func (c *Collector) IncMissionCanceled() {
	if c == nil {
		return
	}
	c.inc(&c.missionsCanceled)
}

// --- Stream ---

// IncChunk records a decoded chunk of the given type.
func (c *Collector) IncChunk(chunkType string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksReceived++
	c.chunksByType[chunkType]++
	c.mu.Unlock()
}

// IncFrameDropped records a line that failed validation.
func (c *Collector) IncFrameDropped() {
	if c == nil {
		return
	}
	c.inc(&c.framesDropped)
}

// IncLateChunk records a delivery ignored because no turn was in flight.
func (c *Collector) IncLateChunk() {
	if c == nil {
		return
	}
	c.inc(&c.lateChunks)
}

// --- Failures ---

// IncTransportError records a non-success response status.
func (c *Collector) IncTransportError() {
	if c == nil {
		return
	}
	c.inc(&c.transportErrors)
}

// IncStreamUnavailable records a response without a readable body.
func (c *Collector) IncStreamUnavailable() {
	if c == nil {
		return
	}
	c.inc(&c.streamUnavailableErrors)
}

// IncNetworkError records a failed read or request.
func (c *Collector) IncNetworkError() {
	if c == nil {
		return
	}
	c.inc(&c.networkErrors)
}

// IncTimeoutError records an expired request/response call.
func (c *Collector) IncTimeoutError() {
	if c == nil {
		return
	}
	c.inc(&c.timeoutErrors)
}

// --- Lode / archive ---
// Archive counters are per-call, not per-record.

// IncArchiveWriteSuccess records a successful archive write.
func (c *Collector) IncArchiveWriteSuccess() {
	if c == nil {
		return
	}
	c.inc(&c.archiveWriteSuccess)
}

// IncArchiveWriteFailure records a failed archive write.
func (c *Collector) IncArchiveWriteFailure() {
	if c == nil {
		return
	}
	c.inc(&c.archiveWriteFailure)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byType := make(map[string]int64, len(c.chunksByType))
	for k, v := range c.chunksByType {
		byType[k] = v
	}

	return Snapshot{
		MissionsStarted:   c.missionsStarted,
		MissionsCompleted: c.missionsCompleted,
		MissionsFailed:    c.missionsFailed,
		MissionsCanceled:  c.missionsCanceled,

		ChunksReceived: c.chunksReceived,
		ChunksByType:   byType,
		FramesDropped:  c.framesDropped,
		LateChunks:     c.lateChunks,

		TransportErrors:         c.transportErrors,
		StreamUnavailableErrors: c.streamUnavailableErrors,
		NetworkErrors:           c.networkErrors,
		TimeoutErrors:           c.timeoutErrors,

		ArchiveWriteSuccess: c.archiveWriteSuccess,
		ArchiveWriteFailure: c.archiveWriteFailure,

		Backend:   c.backend,
		SessionID: c.sessionID,
	}
}
