package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/series"
	"github.com/sprite-ai/devpulse/internal/session"
)

const testPayload = `{
	"git_sha": "0123456789abcdef",
	"code_health_score": 82,
	"ai_metrics": {"ai_probability": 0.3, "recommendations": ["Add tests"]},
	"pylint": {"score": 8.5},
	"radon": {"blocks": [
		{"name": "f", "complexity": 3, "grade": "A"},
		{"name": "g", "complexity": 12, "grade": "D"}
	]},
	"cloc": null
}`

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	raw   string
	err   error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, repoURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, repoURL)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.raw), nil
}

func setupModel(t *testing.T, a Analyzer, opts Options) Model {
	t.Helper()
	m := New(a, opts)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return newM.(Model)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(msg)
	return newM.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// results runs cmd and returns every resultMsg it produces, following batches.
func results(cmd tea.Cmd) []resultMsg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case resultMsg:
		return []resultMsg{msg}
	case tea.BatchMsg:
		var out []resultMsg
		for _, c := range msg {
			out = append(out, results(c)...)
		}
		return out
	}
	return nil
}

func submitURL(t *testing.T, m Model, url string) (Model, tea.Cmd) {
	t.Helper()
	m, _ = press(t, m, runes(url))
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModelInit(t *testing.T) {
	m := setupModel(t, &fakeAnalyzer{}, Options{})

	if m.state.Phase != session.PhaseIdle {
		t.Errorf("expected idle, got %s", m.state.Phase)
	}
	if m.state.Tab != session.TabComplexity {
		t.Errorf("expected complexity tab, got %s", m.state.Tab)
	}
	if !m.input.Focused() {
		t.Error("expected input to be focused")
	}
	if !strings.Contains(m.View(), "Enter a GitHub repository URL") {
		t.Error("expected idle hint in view")
	}
}

func TestSubmitAndRender(t *testing.T) {
	a := &fakeAnalyzer{raw: testPayload}
	var saved []string
	m := setupModel(t, a, Options{OnResult: func(url string, raw []byte, r *model.Report) {
		saved = append(saved, url)
	}})

	m, cmd := submitURL(t, m, "https://github.com/acme/widget")
	if m.state.Phase != session.PhaseSubmitting {
		t.Fatalf("expected submitting, got %s", m.state.Phase)
	}
	if !strings.Contains(m.View(), "Analyzing https://github.com/acme/widget") {
		t.Error("expected progress line in view")
	}

	msgs := results(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one result, got %d", len(msgs))
	}
	newM, recordCmd := m.Update(msgs[0])
	m = newM.(Model)

	if m.state.Phase != session.PhaseSuccess {
		t.Fatalf("expected success, got %s (%v)", m.state.Phase, m.state.Err)
	}
	if len(saved) != 0 {
		t.Errorf("result hook ran inside Update: %v", saved)
	}
	if recordCmd == nil {
		t.Fatal("expected a command recording the result")
	}
	recordCmd()
	if len(saved) != 1 || saved[0] != "https://github.com/acme/widget" {
		t.Errorf("expected result hook call, got %v", saved)
	}

	view := m.View()
	for _, want := range []string{"0123456789", "82/100", "Function Complexity", "Add tests"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	m, _ = press(t, m, runes("2"))
	if !strings.Contains(m.View(), "No line count data available") {
		t.Error("expected line count placeholder")
	}
	m, _ = press(t, m, runes("3"))
	if !strings.Contains(m.View(), "8.50/10") {
		t.Error("expected lint badge")
	}
}

func TestSecondSubmitIgnored(t *testing.T) {
	a := &fakeAnalyzer{raw: testPayload}
	m := setupModel(t, a, Options{})

	m, first := submitURL(t, m, "https://github.com/acme/widget")
	seq := m.state.Seq()

	// Re-run while busy.
	m, second := press(t, m, runes("r"))
	if second != nil {
		t.Error("expected no command for a second submit")
	}
	if m.state.Seq() != seq {
		t.Errorf("expected seq %d, got %d", seq, m.state.Seq())
	}

	msgs := results(first)
	if len(a.calls) != 1 {
		t.Errorf("expected one analyzer call, got %d", len(a.calls))
	}
	newM, _ := m.Update(msgs[0])
	m = newM.(Model)
	if m.state.Phase != session.PhaseSuccess {
		t.Errorf("expected success, got %s", m.state.Phase)
	}
}

func TestStaleResultIgnored(t *testing.T) {
	m := setupModel(t, &fakeAnalyzer{raw: testPayload}, Options{})
	m, _ = submitURL(t, m, "https://github.com/acme/widget")

	newM, _ := m.Update(resultMsg{seq: m.state.Seq() + 7, report: &model.Report{}})
	m = newM.(Model)
	if m.state.Phase != session.PhaseSubmitting {
		t.Errorf("expected stale result to be ignored, got %s", m.state.Phase)
	}
}

func TestFailureAndDismiss(t *testing.T) {
	a := &fakeAnalyzer{err: errors.New("Repository not found")}
	m := setupModel(t, a, Options{})

	m, cmd := submitURL(t, m, "https://github.com/acme/missing")
	newM, _ := m.Update(results(cmd)[0])
	m = newM.(Model)

	if m.state.Phase != session.PhaseFailed {
		t.Fatalf("expected failed, got %s", m.state.Phase)
	}
	if !strings.Contains(m.View(), "Repository not found") {
		t.Error("expected error text in view")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state.Phase != session.PhaseIdle {
		t.Errorf("expected idle after dismiss, got %s", m.state.Phase)
	}
	if !m.input.Focused() {
		t.Error("expected input focused after dismiss")
	}
}

func TestInvalidURL(t *testing.T) {
	a := &fakeAnalyzer{}
	m := setupModel(t, a, Options{})

	m, cmd := submitURL(t, m, "not-a-repo")
	if cmd != nil {
		t.Error("expected no command for an invalid URL")
	}
	if m.state.Phase != session.PhaseIdle {
		t.Errorf("expected idle, got %s", m.state.Phase)
	}
	if m.inputErr == "" {
		t.Error("expected input error")
	}
	if len(a.calls) != 0 {
		t.Error("analyzer should not be called")
	}
}

func TestTabPreservedAcrossRuns(t *testing.T) {
	a := &fakeAnalyzer{raw: testPayload}
	m := setupModel(t, a, Options{})

	m, cmd := submitURL(t, m, "https://github.com/acme/widget")
	m, _ = press(t, m, runes("3"))
	newM, _ := m.Update(results(cmd)[0])
	m = newM.(Model)

	m, cmd = press(t, m, runes("r"))
	newM, _ = m.Update(results(cmd)[0])
	m = newM.(Model)

	if m.state.Tab != session.TabLint {
		t.Errorf("expected lint tab to survive re-analysis, got %s", m.state.Tab)
	}
	if len(a.calls) != 2 {
		t.Errorf("expected two analyzer calls, got %d", len(a.calls))
	}
}

func TestTabCycling(t *testing.T) {
	m := setupModel(t, &fakeAnalyzer{}, Options{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc}) // leave input

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.state.Tab != session.TabLineCount {
		t.Errorf("expected line counts, got %s", m.state.Tab)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.state.Tab != session.TabLint {
		t.Errorf("expected lint after wrapping, got %s", m.state.Tab)
	}
}

func TestNarrativeExpand(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 80)
	a := &fakeAnalyzer{raw: `{"ai_summary": "` + long + `"}`}
	m := setupModel(t, a, Options{})

	m, cmd := submitURL(t, m, "https://github.com/acme/widget")
	newM, _ := m.Update(results(cmd)[0])
	m = newM.(Model)

	if !strings.Contains(m.View(), "press e to expand") {
		t.Error("expected collapsed narrative")
	}
	m, _ = press(t, m, runes("e"))
	if !m.state.NarrativeExpanded {
		t.Error("expected narrative expanded")
	}
	if !strings.Contains(m.View(), "press e to collapse") {
		t.Error("expected collapse hint")
	}
}

func TestInitialURL(t *testing.T) {
	a := &fakeAnalyzer{raw: testPayload}
	m := New(a, Options{RepoURL: "https://github.com/acme/widget"})

	if m.state.Phase != session.PhaseSubmitting {
		t.Fatalf("expected submitting, got %s", m.state.Phase)
	}
	msgs := results(m.Init())
	if len(msgs) != 1 || msgs[0].seq != m.state.Seq() {
		t.Fatalf("expected the pending request to run, got %v", msgs)
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t, &fakeAnalyzer{}, Options{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m, _ = press(t, m, runes("?"))
	if !m.showHelp {
		t.Error("expected help to be shown")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("expected help view to contain shortcuts")
	}
}

func TestResultCarriesRepoURL(t *testing.T) {
	a := &fakeAnalyzer{raw: testPayload}
	var hooked *model.Report
	m := setupModel(t, a, Options{OnResult: func(_ string, _ []byte, r *model.Report) {
		hooked = r
	}})

	m, cmd := submitURL(t, m, "https://github.com/acme/widget")
	msgs := results(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one result, got %d", len(msgs))
	}
	newM, recordCmd := m.Update(msgs[0])
	m = newM.(Model)

	const want = "https://github.com/acme/widget"
	if m.page.Scorecard.RepoURL != want {
		t.Errorf("expected scorecard repo %q, got %q", want, m.page.Scorecard.RepoURL)
	}
	if m.state.Report.RepoURL != want {
		t.Errorf("expected report repo %q, got %q", want, m.state.Report.RepoURL)
	}

	recordCmd()
	if hooked != m.state.Report {
		t.Error("expected the hook to receive the applied report")
	}
	if hooked.RepoURL != want {
		t.Errorf("hook saw repo %q", hooked.RepoURL)
	}
}

func TestNegativeComplexityRenders(t *testing.T) {
	a := &fakeAnalyzer{raw: `{"radon": {"blocks": [{"name": "f", "complexity": -3, "grade": "A"}]}}`}
	m := setupModel(t, a, Options{})

	m, cmd := submitURL(t, m, "https://github.com/acme/widget")
	msgs := results(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one result, got %d", len(msgs))
	}
	newM, _ := m.Update(msgs[0])
	m = newM.(Model)

	if got := m.state.Report.Complexity.Blocks[0].Complexity; got != 0 {
		t.Errorf("expected complexity clamped to 0, got %d", got)
	}
	if !strings.Contains(m.View(), "Function Complexity") {
		t.Error("expected complexity chart in view")
	}
}

func TestRenderChartNegativeValue(t *testing.T) {
	out := renderChart([]series.Bar{
		{Label: "f", Value: -3, Band: series.BandLow, Color: series.BandLow.Color()},
		{Label: "g", Value: 8, Band: series.BandMedium, Color: series.BandMedium.Color()},
	}, 80)
	if !strings.Contains(out, "-3") || !strings.Contains(out, "8") {
		t.Errorf("expected both bars, got %q", out)
	}
}
