package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/pithecene-io/intel/log"
	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/types"
)

// MockBackend serves canned dashboard data and simulated mission streams.
//
// Mission streams are produced as NDJSON bytes, cut into irregular fragments
// and consumed through the same frame decoder and validator as real
// responses.
type MockBackend struct {
	// Latency is the upper bound of the simulated delay per call and per
	// stream fragment. Zero disables delays.
	Latency time.Duration
	// Script overrides the chunks emitted for a mission.
	Script func(req types.MissionRequest) []types.StreamChunk
	// Logger receives dropped-frame warnings.
	Logger *log.Logger
	// Metrics receives stream counters. May be nil.
	Metrics *metrics.Collector
}

// NewMockBackend creates a mock backend with realistic latency.
func NewMockBackend(logger *log.Logger, m *metrics.Collector) *MockBackend {
	return &MockBackend{
		Latency: 200 * time.Millisecond,
		Logger:  logger,
		Metrics: m,
	}
}

// Health returns a healthy status.
func (b *MockBackend) Health(ctx context.Context) (*types.HealthStatus, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	resp := types.HealthResponse{
		Status:     "ok",
		Database:   "up",
		ChromaDB:   "up",
		ServerTime: time.Now().UTC().Format(time.RFC3339),
	}
	return resp.ToStatus(), nil
}

// Stats returns fixed mission statistics.
func (b *MockBackend) Stats(ctx context.Context) (*types.MissionStats, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	resp := types.StatsResponse{TotalMissions: 42, CompletedMissions: 38, FailedMissions: 4}
	return resp.ToStats(), nil
}

// Reports returns a fixed set of mission logs.
func (b *MockBackend) Reports(ctx context.Context) ([]types.MissionLog, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}
	return mockReports(), nil
}

// ExecuteStream simulates POST /execute/stream.
func (b *MockBackend) ExecuteStream(ctx context.Context, req types.MissionRequest, onChunk func(types.StreamChunk), onError func(error)) error {
	if err := req.Validate(); err != nil {
		return err
	}

	script := DefaultScript
	if b.Script != nil {
		script = b.Script
	}

	var payload bytes.Buffer
	for _, chunk := range script(req) {
		line, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("mock: marshal chunk: %w", err)
		}
		payload.Write(line)
		payload.WriteByte('\n')
	}

	pr, pw := io.Pipe()
	go b.writeFragments(ctx, pw, payload.Bytes())

	return Consume(ctx, pr, b.Logger, b.Metrics, onChunk, onError)
}

// writeFragments writes data in irregular pieces, like a network would.
func (b *MockBackend) writeFragments(ctx context.Context, pw *io.PipeWriter, data []byte) {
	for len(data) > 0 {
		if err := b.delay(ctx); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		n := min(len(data), 1+rand.IntN(48))
		if _, err := pw.Write(data[:n]); err != nil {
			// Reader closed: the consumer was canceled.
			return
		}
		data = data[n:]
	}
	_ = pw.Close()
}

func (b *MockBackend) delay(ctx context.Context) error {
	if b.Latency <= 0 {
		return ctx.Err()
	}
	d := time.Duration(rand.Int64N(int64(b.Latency)))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// DefaultScript mirrors the step sequence of the agent's streaming
// executor: analyze, plan, research, synthesize, report.
func DefaultScript(req types.MissionRequest) []types.StreamChunk {
	query := req.UserInput
	if r := []rune(query); len(r) > 50 {
		query = string(r[:50])
	}
	tool := "web_search"
	executing := "Executing web_search..."
	completed := "Completed: 4 sources gathered for " + query + "..."
	report := fmt.Sprintf("# Market Intelligence Report\n\n## Mission\n%s\n\n## Findings\n- Demand remains supply-constrained.\n- Pricing is stable across major providers.\n", req.UserInput)

	return []types.StreamChunk{
		types.ThinkingChunk("Analyzing mission: " + query + "..."),
		types.ThinkingChunk("Plan generated with 2 steps"),
		types.ToolChunk(&tool, &executing),
		types.ToolChunk(&tool, &completed),
		types.ThinkingChunk("Synthesizing final report..."),
		types.CompleteChunk(&report),
	}
}

func mockReports() []types.MissionLog {
	entry := func(id int64, conv int64, query, response string, status types.MissionStatus, created string) types.MissionLog {
		ts, _ := types.ParseTimestamp(created)
		l := types.MissionLog{
			ID:        id,
			Query:     &query,
			Status:    &status,
			CreatedAt: &ts,
		}
		if conv > 0 {
			l.ConversationID = &conv
		}
		if response != "" {
			l.Response = &response
		}
		return l
	}

	return []types.MissionLog{
		entry(1, 1, "Q4 2024 Market Analysis - Tech Sector", "Comprehensive analysis of technology market trends and competitive landscape", types.MissionStatusCompleted, "2024-12-15T10:30:00Z"),
		entry(2, 2, "Competitive Intelligence Report - AI Companies", "Deep dive into AI market leaders and emerging players", types.MissionStatusCompleted, "2024-12-10T14:20:00Z"),
		entry(3, 3, "Industry Trend Analysis - Cloud Services", "Market trends and growth projections for cloud service providers", types.MissionStatusCompleted, "2024-12-05T09:15:00Z"),
		entry(4, 0, "Startup Ecosystem Report - FinTech", "Analysis of financial technology startups and investment patterns", types.MissionStatusCompleted, "2024-11-28T16:45:00Z"),
		entry(5, 0, "Market Opportunity Assessment - Healthcare Tech", "Evaluation of market opportunities in healthcare technology sector", types.MissionStatusCompleted, "2024-11-20T11:00:00Z"),
		entry(6, 4, "GPU Pricing Intelligence - H100 Analysis", "", types.MissionStatusInProgress, "2024-12-12T13:30:00Z"),
		entry(7, 5, "Semiconductor Supply Chain Review", "", types.MissionStatusFailed, "2024-12-01T08:00:00Z"),
	}
}

// Verify MockBackend implements the Backend interface.
var _ Backend = (*MockBackend)(nil)
