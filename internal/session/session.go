// Package session holds the presentation state of one analysis session.
//
// State is a plain value. Every transition returns a new State, so a caller owns exactly one
// current state and tests can drive transitions without a running UI.
package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sprite-ai/devpulse/internal/model"
)

// Phase is the lifecycle of the single outstanding request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSuccess
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Tab is the visible report section. It is independent of the request lifecycle.
type Tab int

const (
	TabComplexity Tab = iota
	TabLineCount
	TabLint
)

// Tabs lists the sections in display order.
var Tabs = []Tab{TabComplexity, TabLineCount, TabLint}

func (t Tab) String() string {
	switch t {
	case TabComplexity:
		return "complexity"
	case TabLineCount:
		return "line-counts"
	case TabLint:
		return "lint"
	default:
		return "unknown"
	}
}

// Title is the label shown on the tab.
func (t Tab) Title() string {
	switch t {
	case TabComplexity:
		return "Complexity"
	case TabLineCount:
		return "Line Counts"
	case TabLint:
		return "Lint"
	default:
		return "Unknown"
	}
}

func (t Tab) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseTab accepts a tab name or the analyzer it shows (radon, cloc, pylint).
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complexity", "radon":
		return TabComplexity, nil
	case "line-counts", "line_counts", "lines", "cloc":
		return TabLineCount, nil
	case "lint", "pylint":
		return TabLint, nil
	default:
		return TabComplexity, fmt.Errorf("unknown tab %q", s)
	}
}

// Request identifies an accepted submission. Seq increases with every accepted Submit.
type Request struct {
	Seq     uint64
	RepoURL string
}

// State is the presentation state of a session.
type State struct {
	Phase   Phase
	Tab     Tab
	RepoURL string
	Report  *model.Report
	Err     error

	// NarrativeExpanded is reset whenever a new result is applied.
	NarrativeExpanded bool

	seq uint64
}

// New returns an idle state showing the complexity tab.
func New() State {
	return State{Phase: PhaseIdle, Tab: TabComplexity}
}

// Busy reports whether a request is in flight.
func (s State) Busy() bool {
	return s.Phase == PhaseSubmitting
}

// Seq is the sequence number of the latest accepted request.
func (s State) Seq() uint64 {
	return s.seq
}

// Submit starts a request. While another request is in flight it is a no-op and ok is false.
// Any prior report or error is discarded.
func (s State) Submit(repoURL string) (next State, req Request, ok bool) {
	if s.Busy() {
		return s, Request{}, false
	}
	s.seq++
	s.Phase = PhaseSubmitting
	s.RepoURL = repoURL
	s.Report = nil
	s.Err = nil
	s.NarrativeExpanded = false
	return s, Request{Seq: s.seq, RepoURL: repoURL}, true
}

// Resolve applies the outcome of request seq. Outcomes for any other request, or arriving
// when nothing is in flight, are ignored and ok is false.
func (s State) Resolve(seq uint64, report *model.Report, err error) (next State, ok bool) {
	if !s.Busy() || seq != s.seq {
		return s, false
	}
	s.NarrativeExpanded = false
	if err != nil {
		s.Phase = PhaseFailed
		s.Report = nil
		s.Err = err
		return s, true
	}
	if report == nil {
		report = &model.Report{}
	}
	s.Phase = PhaseSuccess
	s.Report = report
	s.Err = nil
	return s, true
}

// Dismiss returns a finished session to idle and drops its result.
func (s State) Dismiss() State {
	if s.Phase != PhaseFailed && s.Phase != PhaseSuccess {
		return s
	}
	s.Phase = PhaseIdle
	s.Report = nil
	s.Err = nil
	s.NarrativeExpanded = false
	return s
}

// SelectTab switches the visible section. Unknown tabs are ignored.
func (s State) SelectTab(t Tab) State {
	if t < TabComplexity || t > TabLint {
		return s
	}
	s.Tab = t
	return s
}

func (s State) NextTab() State {
	s.Tab = Tabs[(int(s.Tab)+1)%len(Tabs)]
	return s
}

func (s State) PrevTab() State {
	s.Tab = Tabs[(int(s.Tab)+len(Tabs)-1)%len(Tabs)]
	return s
}

// ToggleNarrative expands or collapses the narrative of the current report.
func (s State) ToggleNarrative() State {
	if s.Report == nil {
		return s
	}
	s.NarrativeExpanded = !s.NarrativeExpanded
	return s
}

type stateJSON struct {
	Phase             Phase         `json:"phase"`
	Tab               Tab           `json:"tab"`
	Seq               uint64        `json:"seq"`
	RepoURL           string        `json:"repo_url,omitempty"`
	Error             string        `json:"error,omitempty"`
	NarrativeExpanded bool          `json:"narrative_expanded"`
	Report            *model.Report `json:"report,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{
		Phase:             s.Phase,
		Tab:               s.Tab,
		Seq:               s.seq,
		RepoURL:           s.RepoURL,
		NarrativeExpanded: s.NarrativeExpanded,
		Report:            s.Report,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}
