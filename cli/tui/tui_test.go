package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/intel/client"
	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/transcript"
	"github.com/pithecene-io/intel/types"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{"health", true},
		{"stats", true},
		{"metrics", true},

		{"reports", false},
		{"history", false},
		{"version", false},
		{"mission", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			if got := IsTUISupported(tt.viewType); got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	if err := Run("reports", nil); err == nil {
		t.Error("Expected error for unsupported view type")
	}
}

func TestStatsModel_Views(t *testing.T) {
	tests := []struct {
		viewType string
		data     any
		want     []string
	}{
		{
			ViewHealth,
			&types.HealthStatus{Status: "healthy", Database: "online", ChromaDB: "offline", Timestamp: "2024-06-01T12:00:00Z"},
			[]string{"Backend Health", "healthy", "online", "offline", "2024-06-01T12:00:00Z"},
		},
		{
			ViewStats,
			&types.MissionStats{Total: 42, Completed: 38, Failed: 4, SuccessRate: 90.48},
			[]string{"Mission Statistics", "42", "38", "90.48%"},
		},
		{
			ViewMetrics,
			&metrics.Snapshot{MissionsStarted: 3, MissionsCompleted: 2, FramesDropped: 5},
			[]string{"Session Metrics", "Started", "Dropped", "5"},
		},
		{ViewStats, "wrong", []string{"Invalid data type for stats"}},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			got := RenderStatsStatic(tt.viewType, tt.data)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("view missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestStatsModel_Quit(t *testing.T) {
	m := NewStatsModel(ViewStats, &types.MissionStats{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if next.(StatsModel).View() != "" {
		t.Error("quitting model should render nothing")
	}
}

type failingBackend struct {
	client.MockBackend
	err error
}

func (b *failingBackend) Health(context.Context) (*types.HealthStatus, error) { return nil, b.err }
func (b *failingBackend) Stats(context.Context) (*types.MissionStats, error)  { return nil, b.err }

func fastMock() *client.MockBackend {
	b := client.NewMockBackend(nil, nil)
	b.Latency = 0
	return b
}

func TestDashboardModel_Fetch(t *testing.T) {
	m := NewDashboardModel(t.Context(), fastMock(), DashboardOptions{ReportLimit: 3})

	if !strings.Contains(m.View(), "loading health") {
		t.Errorf("expected loading state:\n%s", m.View())
	}

	var model tea.Model = m
	for _, cmd := range []tea.Cmd{m.fetchHealth(), m.fetchStats(), m.fetchReports()} {
		model, _ = model.Update(cmd())
	}

	view := model.View()
	for _, want := range []string{"healthy", "online", "42", "90.48%", "Recent Reports", "updated"} {
		if !strings.Contains(view, want) {
			t.Errorf("dashboard missing %q:\n%s", want, view)
		}
	}
	if got := strings.Count(view, "#"); got != 3 {
		t.Errorf("rendered %d reports, want limit 3", got)
	}
}

func TestDashboardModel_Errors(t *testing.T) {
	b := &failingBackend{MockBackend: *fastMock(), err: errors.New("backend unreachable")}
	m := NewDashboardModel(t.Context(), b, DashboardOptions{})

	var model tea.Model = m
	model, _ = model.Update(m.fetchHealth()())
	model, _ = model.Update(m.fetchStats()())

	view := model.View()
	if !strings.Contains(view, "health: backend unreachable") || !strings.Contains(view, "stats: backend unreachable") {
		t.Errorf("errors not shown:\n%s", view)
	}
}

func TestDashboardModel_Polling(t *testing.T) {
	m := NewDashboardModel(t.Context(), fastMock(), DashboardOptions{HealthInterval: 30 * time.Second, StatsInterval: time.Minute})

	if _, cmd := m.Update(healthTickMsg{}); cmd == nil {
		t.Error("health tick must schedule a fetch")
	}
	if _, cmd := m.Update(statsTickMsg{}); cmd == nil {
		t.Error("stats tick must schedule a fetch")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd == nil {
		t.Error("refresh must fetch")
	}
	if cmd := m.tick(0, func(time.Time) tea.Msg { return nil }); cmd != nil {
		t.Error("zero interval must disable polling")
	}
}

func typeQuery(m tea.Model, q string) tea.Model {
	for _, r := range q {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestAgentModel_SubmitMission(t *testing.T) {
	r := transcript.New(fastMock())
	var turns []*transcript.TurnResult
	var model tea.Model = NewAgentModel(t.Context(), r, func(res *transcript.TurnResult) { turns = append(turns, res) })

	model = typeQuery(model, "GPU pricing")
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter must start a mission")
	}

	msg := cmd()
	done, ok := msg.(submitDoneMsg)
	if !ok {
		t.Fatalf("unexpected message %T", msg)
	}
	if done.err != nil || done.result.Outcome != transcript.OutcomeCompleted {
		t.Fatalf("result = %+v, err = %v", done.result, done.err)
	}

	model, _ = model.Update(done)
	view := model.View()
	for _, want := range []string{"› GPU pricing", "web_search", "Market Intelligence Report", "last mission completed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if len(turns) != 1 || turns[0] != done.result {
		t.Errorf("onTurn calls = %d", len(turns))
	}
	if got := len(r.Messages()); got != 2 {
		t.Errorf("messages = %d, want 2", got)
	}
}

func TestAgentModel_EmptyInputIgnored(t *testing.T) {
	var model tea.Model = NewAgentModel(t.Context(), transcript.New(fastMock()), nil)
	model = typeQuery(model, "   ")
	if _, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("blank input must not submit")
	}
}

func TestAgentModel_CancelWhenIdle(t *testing.T) {
	var model tea.Model = NewAgentModel(t.Context(), transcript.New(fastMock()), nil)
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !strings.Contains(model.View(), "no mission is streaming") {
		t.Errorf("missing idle notice:\n%s", model.View())
	}
}

func TestEventBridge_Unattached(_ *testing.T) {
	// Events before a program is attached are dropped without blocking.
	NewEventBridge().Observe(transcript.Event{Kind: transcript.EventChunk})
}

func TestRenderState(t *testing.T) {
	tool := "web_search"
	state := transcript.State{
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "query"},
			{Role: types.RoleAssistant, Content: "Error: upstream timeout"},
		},
		Accumulation: []types.StreamChunk{types.ToolChunk(&tool, nil)},
		InFlight:     true,
	}

	got := RenderState(state, "*")
	for _, want := range []string{"› query", "Error: upstream timeout", "▶ web_search", "* working"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q:\n%s", want, got)
		}
	}
}
