// Package tui implements the Bubble Tea terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sprite-ai/devpulse/internal/client"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/report"
	"github.com/sprite-ai/devpulse/internal/session"
	"github.com/sprite-ai/devpulse/internal/view"
)

// Analyzer fetches the raw analysis payload for a repository.
type Analyzer interface {
	Analyze(ctx context.Context, repoURL string) ([]byte, error)
}

// Options configures the UI.
type Options struct {
	// RepoURL, when set, is submitted as soon as the program starts.
	RepoURL string
	// Theme is the chroma style for code in narratives.
	Theme string
	// OnResult is called with every applied successful result. It runs as a command, off the
	// update loop, and must not modify the report.
	OnResult func(repoURL string, raw []byte, r *model.Report)
}

// resultMsg carries the outcome of one analysis request.
type resultMsg struct {
	seq    uint64
	raw    []byte
	report *model.Report
	err    error
}

// Model is the top-level Bubble Tea model for devpulse.
type Model struct {
	analyzer  Analyzer
	sanitizer *markdown.Sanitizer
	onResult  func(string, []byte, *model.Report)

	state session.State
	page  view.Page

	// Pending request started before the program loop.
	pending *session.Request

	input    textinput.Model
	inputErr string
	spinner  spinner.Model

	// UI state
	width        int
	height       int
	scrollOffset int
	showHelp     bool
}

// New creates a new TUI model.
func New(a Analyzer, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "https://github.com/owner/repo"
	ti.Prompt = "› "
	ti.CharLimit = 256
	ti.Focus()

	m := Model{
		analyzer:  a,
		sanitizer: markdown.New(opts.Theme),
		onResult:  opts.OnResult,
		state:     session.New(),
		input:     ti,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle)),
	}

	if opts.RepoURL != "" {
		m.input.SetValue(opts.RepoURL)
		if u, err := client.ValidateRepoURL(opts.RepoURL); err != nil {
			m.inputErr = err.Error()
		} else {
			var req session.Request
			m.state, req, _ = m.state.Submit(u)
			m.pending = &req
			m.input.Blur()
		}
	}
	return m
}

// State returns the current session state.
func (m Model) State() session.State {
	return m.state
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.pending != nil {
		return tea.Batch(m.spinner.Tick, m.analyze(*m.pending))
	}
	return textinput.Blink
}

func (m Model) analyze(req session.Request) tea.Cmd {
	a := m.analyzer
	return func() tea.Msg {
		raw, err := a.Analyze(context.Background(), req.RepoURL)
		if err != nil {
			return resultMsg{seq: req.Seq, err: err}
		}
		r, err := report.Normalize(raw)
		if err != nil {
			return resultMsg{seq: req.Seq, err: fmt.Errorf("reading analysis result: %w", err)}
		}
		if r.RepoURL == "" {
			r.RepoURL = req.RepoURL
		}
		return resultMsg{seq: req.Seq, raw: raw, report: r}
	}
}

// submit validates the input and starts a request. It is a no-op while one is in flight.
func (m Model) submit(raw string) (Model, tea.Cmd) {
	if m.state.Busy() {
		return m, nil
	}
	u, err := client.ValidateRepoURL(raw)
	if err != nil {
		if errors.Is(err, client.ErrInvalidRepoURL) {
			m.inputErr = "Please enter a valid GitHub repository URL"
		} else {
			m.inputErr = err.Error()
		}
		return m, nil
	}
	next, req, ok := m.state.Submit(u)
	if !ok {
		return m, nil
	}
	slog.Debug("submitting analysis", "repo", u, "seq", req.Seq)
	m.state = next
	m.inputErr = ""
	m.scrollOffset = 0
	m.input.Blur()
	return m, tea.Batch(m.spinner.Tick, m.analyze(req))
}

// recordResult hands an applied result to the OnResult hook outside of Update.
func (m Model) recordResult(repoURL string, raw []byte, r *model.Report) tea.Cmd {
	hook := m.onResult
	if hook == nil {
		return nil
	}
	return func() tea.Msg {
		hook(repoURL, raw, r)
		return nil
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case resultMsg:
		next, ok := m.state.Resolve(msg.seq, msg.report, msg.err)
		if !ok {
			slog.Debug("ignoring stale result", "seq", msg.seq)
			return m, nil
		}
		m.state = next
		m.scrollOffset = 0
		if next.Phase != session.PhaseSuccess {
			return m, nil
		}
		m.page = view.NewPageWith(m.sanitizer, next.Report)
		return m, m.recordResult(next.RepoURL, msg.raw, next.Report)

	case spinner.TickMsg:
		if !m.state.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, keys.Submit):
		return m.submit(m.input.Value())
	case key.Matches(msg, keys.Blur):
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.inputErr = ""
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, keys.Focus):
		m.showHelp = false
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, keys.Submit), key.Matches(msg, keys.Rerun):
		return m.submit(m.input.Value())

	case key.Matches(msg, keys.Dismiss):
		m.state = m.state.Dismiss()
		m.page = view.Page{}
		m.scrollOffset = 0
		if m.state.Phase == session.PhaseIdle {
			cmd := m.input.Focus()
			return m, cmd
		}

	case key.Matches(msg, keys.NextTab):
		m.state = m.state.NextTab()
		m.scrollOffset = 0
	case key.Matches(msg, keys.PrevTab):
		m.state = m.state.PrevTab()
		m.scrollOffset = 0
	case key.Matches(msg, keys.Tab1):
		m.state = m.state.SelectTab(session.TabComplexity)
	case key.Matches(msg, keys.Tab2):
		m.state = m.state.SelectTab(session.TabLineCount)
	case key.Matches(msg, keys.Tab3):
		m.state = m.state.SelectTab(session.TabLint)

	case key.Matches(msg, keys.Expand):
		m.state = m.state.ToggleNarrative()

	case key.Matches(msg, keys.Down):
		m.scrollOffset++
	case key.Matches(msg, keys.Up):
		if m.scrollOffset > 0 {
			m.scrollOffset--
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	status := m.renderStatusBar()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(status), 1)
	body := m.scroll(m.renderBody(), bodyHeight)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DevPulse") + labelStyle.Render("  repository health analysis") + "\n")
	b.WriteString(m.input.View())
	if m.inputErr != "" {
		b.WriteString("\n" + inputErrorStyle.Render(m.inputErr))
	}
	return b.String() + "\n"
}

func (m Model) renderBody() string {
	inner := max(m.width-4, 20)
	switch m.state.Phase {
	case session.PhaseSubmitting:
		return fmt.Sprintf("%s Analyzing %s…", m.spinner.View(), m.state.RepoURL)

	case session.PhaseFailed:
		msg := "Analysis failed: " + m.state.Err.Error()
		return errorPanelStyle.Width(inner).Render(msg + "\n\n" + helpBarStyle.Render("esc dismiss · r retry"))

	case session.PhaseSuccess:
		sc := m.page.Scorecard
		var b strings.Builder
		b.WriteString(panelStyle.Width(inner).Render(renderScorecard(sc)))
		b.WriteString("\n")
		b.WriteString(renderTabs(m.state.Tab) + "\n")
		b.WriteString(panelStyle.Width(inner).Render(renderTab(m.page, m.state.Tab, inner-4)))
		b.WriteString("\n")
		b.WriteString(panelStyle.Width(inner).Render(renderNarrative(sc.Summary, m.state.NarrativeExpanded, inner-4)))
		return b.String()

	default:
		return placeholderStyle.Render("Enter a GitHub repository URL and press enter to analyze it.")
	}
}

// scroll clips content to height lines starting at the scroll offset.
func (m Model) scroll(content string, height int) string {
	lines := strings.Split(content, "\n")
	start := min(m.scrollOffset, max(len(lines)-1, 0))
	end := min(start+height, len(lines))
	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderStatusBar() string {
	left := " " + m.state.Phase.String()
	if m.state.Report != nil {
		left += "  " + m.state.Report.ShortCommit()
	}
	right := m.state.Tab.Title() + "  ? help "

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(sectionHeaderStyle.Render("devpulse - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []key.Binding{
		keys.Submit, keys.Focus, keys.Blur, keys.NextTab, keys.PrevTab,
		keys.Tab1, keys.Tab2, keys.Tab3, keys.Expand, keys.Dismiss,
		keys.Rerun, keys.Up, keys.Down, keys.Help, keys.Quit,
	}
	for _, kb := range bindings {
		h := kb.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))
	return b.String()
}

// Run starts the TUI application.
func Run(ctx context.Context, a Analyzer, opts Options) error {
	p := tea.NewProgram(New(a, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
