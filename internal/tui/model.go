// Package tui is the interactive execution page.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lk2023060901/execution-console/internal/execution/biz"
	"github.com/lk2023060901/execution-console/internal/presentation"
	"github.com/lk2023060901/execution-console/internal/router"
)

const helpText = "c conversation · m metadata · e expand · b blocks · r reload · t thread · q quit"

var (
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// fetchedMsg 携带发起请求时的 generation，过期结果直接丢弃
type fetchedMsg struct {
	gen  uint64
	exec *biz.Execution
	err  error
}

// Model is the bubbletea model of one execution page.
type Model struct {
	ctx      context.Context
	uc       *biz.ExecutionUseCase
	viewer   *biz.Viewer
	renderer *presentation.Renderer
	project  string
	id       string

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	snap   biz.Snapshot
	status string
	warn   string
}

// New creates the page model for execution id.
func New(ctx context.Context, uc *biz.ExecutionUseCase, renderer *presentation.Renderer, project, id string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:      ctx,
		uc:       uc,
		viewer:   uc.NewViewer(),
		renderer: renderer,
		project:  project,
		id:       id,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		snap:     biz.Snapshot{State: biz.StateLoading, ExecutionID: id},
	}
}

// Snapshot returns the page state the model is showing.
func (m *Model) Snapshot() biz.Snapshot {
	return m.snap
}

// Status returns the last status line, e.g. the route opened by `t`.
func (m *Model) Status() string {
	return m.status
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// load starts a new generation; the previous in-flight request is cancelled.
func (m *Model) load() tea.Cmd {
	ctx, gen := m.viewer.Begin(m.ctx, m.id)
	m.snap = m.viewer.Snapshot()
	m.warn = ""
	viewer, id := m.viewer, m.id
	return func() tea.Msg {
		exec, err := viewer.Fetch(ctx, id)
		return fetchedMsg{gen: gen, exec: exec, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if !m.viewer.Complete(msg.gen, msg.exec, msg.err) {
			return m, nil
		}
		m.snap = m.viewer.Snapshot()
		m.refresh()
		m.viewport.GotoTop()
		return m, nil

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 2
		if m.viewport.Height < 1 {
			m.viewport.Height = 1
		}
		opts := m.renderer.Options()
		opts.Width = msg.Width
		m.renderer.SetOptions(opts)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.snap.State != biz.StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	opts := m.renderer.Options()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.viewer.Close()
		return m, tea.Quit
	case "c":
		opts.ShowConversation = !opts.ShowConversation
	case "m":
		opts.ExpandMetadata = !opts.ExpandMetadata
	case "e":
		opts.ExpandMessages = !opts.ExpandMessages
	case "b":
		opts.BlocksMode = !opts.BlocksMode
	case "r":
		return m, tea.Batch(m.load(), m.spinner.Tick)
	case "t":
		if m.uc.OpenThread(m.project, m.snap.Execution) {
			m.status = "→ " + router.ThreadPath(m.project, m.snap.Execution.ThreadID)
		} else {
			m.status = "execution has no thread"
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.renderer.SetOptions(opts)
	m.refresh()
	return m, nil
}

func (m *Model) refresh() {
	if m.snap.State == biz.StateLoading {
		return
	}
	page, err := m.renderer.RenderSnapshot(m.snap)
	m.warn = ""
	if err != nil {
		m.warn = "some messages could not be rendered"
	}
	m.viewport.SetContent(page)
}

func (m *Model) View() string {
	if m.snap.State == biz.StateLoading {
		return m.spinner.View() + " Loading execution " + m.id + "...\n"
	}

	footer := helpStyle.Render(helpText)
	if m.warn != "" {
		footer = errorStyle.Render(m.warn) + "  " + footer
	}
	if m.status != "" {
		footer = statusStyle.Render(m.status) + "  " + footer
	}
	return strings.Join([]string{m.viewport.View(), footer}, "\n")
}

// Run starts the program on the alternate screen.
func Run(m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}
