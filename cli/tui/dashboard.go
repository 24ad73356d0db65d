package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/intel/client"
	"github.com/pithecene-io/intel/types"
)

// DashboardOptions configures the live dashboard.
type DashboardOptions struct {
	// HealthInterval is the health polling period.
	HealthInterval time.Duration
	// StatsInterval is the stats and reports polling period.
	StatsInterval time.Duration
	// ReportLimit caps the number of reports shown. Zero shows 10.
	ReportLimit int
}

type (
	healthMsg struct {
		status *types.HealthStatus
		err    error
	}
	statsMsg struct {
		stats *types.MissionStats
		err   error
	}
	reportsMsg struct {
		reports []types.MissionLog
		err     error
	}
	healthTickMsg time.Time
	statsTickMsg  time.Time
)

// DashboardModel polls the backend and shows health, stats and recent
// reports.
type DashboardModel struct {
	ctx     context.Context
	backend client.Backend
	opts    DashboardOptions

	health    *types.HealthStatus
	healthErr error
	stats     *types.MissionStats
	statsErr  error
	reports   []types.MissionLog
	reportErr error
	updated   time.Time

	spinner  spinner.Model
	width    int
	quitting bool
}

// NewDashboardModel creates a dashboard model. Backend calls use ctx.
func NewDashboardModel(ctx context.Context, backend client.Backend, opts DashboardOptions) DashboardModel {
	if opts.ReportLimit <= 0 {
		opts.ReportLimit = 10
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return DashboardModel{
		ctx:     ctx,
		backend: backend,
		opts:    opts,
		spinner: s,
	}
}

// Init implements tea.Model.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchHealth(),
		m.fetchStats(),
		m.fetchReports(),
		m.tick(m.opts.HealthInterval, func(t time.Time) tea.Msg { return healthTickMsg(t) }),
		m.tick(m.opts.StatsInterval, func(t time.Time) tea.Msg { return statsTickMsg(t) }),
	)
}

// Update implements tea.Model.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, tea.Batch(m.fetchHealth(), m.fetchStats(), m.fetchReports())
		}

	case healthMsg:
		m.health, m.healthErr = msg.status, msg.err
		m.updated = time.Now()
		return m, nil

	case statsMsg:
		m.stats, m.statsErr = msg.stats, msg.err
		m.updated = time.Now()
		return m, nil

	case reportsMsg:
		m.reports, m.reportErr = msg.reports, msg.err
		return m, nil

	case healthTickMsg:
		return m, tea.Batch(
			m.fetchHealth(),
			m.tick(m.opts.HealthInterval, func(t time.Time) tea.Msg { return healthTickMsg(t) }),
		)

	case statsTickMsg:
		return m, tea.Batch(
			m.fetchStats(),
			m.fetchReports(),
			m.tick(m.opts.StatsInterval, func(t time.Time) tea.Msg { return statsTickMsg(t) }),
		)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Market Intelligence Dashboard"))
	b.WriteString("\n")

	switch {
	case m.healthErr != nil:
		b.WriteString(BoxStyle.Render(ErrorStyle.Render("health: " + m.healthErr.Error())))
	case m.health == nil:
		b.WriteString(m.spinner.View() + " loading health")
	default:
		b.WriteString(renderHealthBox(m.health))
	}
	b.WriteString("\n")

	switch {
	case m.statsErr != nil:
		b.WriteString(ErrorStyle.Render("stats: " + m.statsErr.Error()))
	case m.stats == nil:
		b.WriteString(m.spinner.View() + " loading stats")
	default:
		b.WriteString(renderMissionStatBoxes(m.stats))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderReports())

	help := "r refresh • q quit"
	if !m.updated.IsZero() {
		help = fmt.Sprintf("updated %s • %s", m.updated.Format("15:04:05"), help)
	}
	b.WriteString("\n" + HelpStyle.Render(help))
	return b.String()
}

func (m DashboardModel) renderReports() string {
	if m.reportErr != nil {
		return ErrorStyle.Render("reports: " + m.reportErr.Error())
	}
	if m.reports == nil {
		return m.spinner.View() + " loading reports"
	}
	if len(m.reports) == 0 {
		return MutedStyle.Render("(no reports)")
	}

	var b strings.Builder
	b.WriteString(LabelStyle.Render("Recent Reports"))
	b.WriteString("\n")
	for i, r := range m.reports {
		if i == m.opts.ReportLimit {
			break
		}
		status := "-"
		if r.Status != nil {
			status = string(*r.Status)
		}
		query := ""
		if r.Query != nil {
			query = truncateText(*r.Query, 48)
		}
		created := ""
		if r.CreatedAt != nil {
			created = r.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "#%-4d %s %-48s %s\n",
			r.ID,
			StateStyle(status).Width(12).Render(status),
			query,
			MutedStyle.Render(created))
	}
	return b.String()
}

func (m DashboardModel) fetchHealth() tea.Cmd {
	return func() tea.Msg {
		status, err := m.backend.Health(m.ctx)
		return healthMsg{status: status, err: err}
	}
}

func (m DashboardModel) fetchStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.backend.Stats(m.ctx)
		return statsMsg{stats: stats, err: err}
	}
}

func (m DashboardModel) fetchReports() tea.Cmd {
	return func() tea.Msg {
		reports, err := m.backend.Reports(m.ctx)
		return reportsMsg{reports: reports, err: err}
	}
}

// tick schedules fn after d. A non-positive interval disables polling.
func (m DashboardModel) tick(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, fn)
}

// RunDashboard runs the live dashboard until the user quits or ctx ends.
func RunDashboard(ctx context.Context, backend client.Backend, opts DashboardOptions) error {
	p := tea.NewProgram(NewDashboardModel(ctx, backend, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func truncateText(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
