package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/intel/transcript"
	"github.com/pithecene-io/intel/types"
)

// EventBridge forwards reducer events to a running program.
// Pass Observe to transcript.WithObserver before the program starts.
type EventBridge struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewEventBridge creates an unattached bridge. Events observed before a
// program is attached are dropped.
func NewEventBridge() *EventBridge {
	return &EventBridge{}
}

// Observe implements the reducer observer.
func (b *EventBridge) Observe(ev transcript.Event) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Send(reducerEventMsg(ev))
	}
}

func (b *EventBridge) attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

type (
	reducerEventMsg transcript.Event
	submitDoneMsg   struct {
		result *transcript.TurnResult
		err    error
	}
)

// chrome is the number of lines used by everything except the viewport.
const chrome = 6

// AgentModel is the interactive mission terminal.
type AgentModel struct {
	ctx     context.Context
	reducer *transcript.Reducer
	onTurn  func(*transcript.TurnResult)

	state  transcript.State
	last   *transcript.TurnResult
	notice string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	ready    bool
	quitting bool
}

// NewAgentModel creates an agent terminal driving r. Missions run with ctx.
// onTurn, if set, is called with every finished turn before the view
// updates.
func NewAgentModel(ctx context.Context, r *transcript.Reducer, onTurn func(*transcript.TurnResult)) AgentModel {
	ti := textinput.New()
	ti.Placeholder = "Describe a market intelligence mission… (Enter to send)"
	ti.CharLimit = 4000
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return AgentModel{
		ctx:      ctx,
		reducer:  r,
		onTurn:   onTurn,
		state:    r.Snapshot(),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  s,
	}
}

// Init implements tea.Model.
func (m AgentModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update implements tea.Model.
func (m AgentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chrome)
		m.input.Width = max(10, msg.Width-4)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.AgentQuit):
			m.reducer.Cancel()
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Cancel):
			if !m.reducer.Cancel() {
				m.notice = "no mission is streaming"
			}
			return m, nil
		case key.Matches(msg, keys.Submit):
			return m.submit()
		case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case reducerEventMsg:
		m.state = m.reducer.Snapshot()
		m.refresh()
		return m, nil

	case submitDoneMsg:
		m.state = m.reducer.Snapshot()
		m.last = msg.result
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m AgentModel) submit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil
	}
	if m.reducer.InFlight() {
		m.notice = transcript.ErrAlreadyStreaming.Error()
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	r, ctx, onTurn := m.reducer, m.ctx, m.onTurn
	return m, func() tea.Msg {
		res, err := r.Submit(ctx, types.MissionRequest{UserInput: query})
		if err != nil {
			return submitDoneMsg{err: err}
		}
		if onTurn != nil {
			onTurn(res)
		}
		return submitDoneMsg{result: res}
	}
}

func (m *AgentModel) refresh() {
	m.viewport.SetContent(RenderState(m.state, m.spinner.View()))
	m.viewport.GotoBottom()
}

// View implements tea.Model.
func (m AgentModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Market Intelligence Agent"))
	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(RenderState(m.state, m.spinner.View()))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.status()))
	return b.String()
}

func (m AgentModel) status() string {
	parts := []string{}
	switch {
	case m.state.InFlight:
		parts = append(parts, m.spinner.View()+" streaming")
	case m.last != nil:
		parts = append(parts, fmt.Sprintf("last mission %s in %s", m.last.Outcome, m.last.Duration.Round(time.Millisecond)))
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	parts = append(parts, "enter send • esc cancel • ctrl+c quit")
	return strings.Join(parts, " • ")
}

// RenderState renders a transcript with the in-flight accumulation.
func RenderState(s transcript.State, indicator string) string {
	var b strings.Builder
	for _, msg := range s.Messages {
		b.WriteString(RenderMessage(msg))
		b.WriteString("\n")
	}
	if s.InFlight {
		for _, c := range s.Accumulation {
			b.WriteString(RenderChunk(c))
			b.WriteString("\n")
		}
		b.WriteString(indicator + " working…\n")
	}
	return b.String()
}

// RenderMessage renders a committed message with its chunk trail.
func RenderMessage(msg types.Message) string {
	if msg.Role == types.RoleUser {
		return lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render("› " + msg.Content)
	}

	var b strings.Builder
	for _, c := range msg.Chunks {
		if c.Type.IsTerminal() {
			continue
		}
		b.WriteString(RenderChunk(c))
		b.WriteString("\n")
	}
	if msg.IsError() {
		b.WriteString(ErrorStyle.Render(msg.Content))
	} else {
		b.WriteString(ValueStyle.Render(msg.Content))
	}
	return b.String()
}

// RenderChunk renders one chunk as a single styled line.
func RenderChunk(c types.StreamChunk) string {
	prefix := "  · "
	if c.Type == types.ChunkTypeTool {
		prefix = "  ▶ "
	}
	return ChunkStyle(c.Type).Render(prefix + c.Summary())
}

// RunAgent runs the agent terminal. bridge must be the observer of r.
func RunAgent(ctx context.Context, r *transcript.Reducer, bridge *EventBridge, onTurn func(*transcript.TurnResult)) error {
	p := tea.NewProgram(NewAgentModel(ctx, r, onTurn), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.attach(p)
	defer bridge.attach(nil)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
