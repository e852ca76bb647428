package view

import (
	"fmt"

	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/series"
)

const (
	noBlocksMessage = "No complexity blocks found"
	noIssuesMessage = "No lint issues found"
)

// ComplexityRow is one block with its grade badge.
type ComplexityRow struct {
	Name       string          `json:"name"`
	Kind       string          `json:"kind"`
	Complexity int             `json:"complexity"`
	Grade      model.Grade     `json:"grade"`
	Badge      classify.Result `json:"badge"`
	File       string          `json:"file,omitempty"`
	Location   string          `json:"location,omitempty"`
}

// ComplexityTab is the complexity section.
type ComplexityTab struct {
	Available   bool   `json:"available"`
	Placeholder string `json:"placeholder,omitempty"`

	Totals string          `json:"totals,omitempty"`
	Rows   []ComplexityRow `json:"rows"`
	Empty  string          `json:"empty,omitempty"`

	Bars             []series.Bar `json:"bars"`
	ChartPlaceholder string       `json:"chart_placeholder,omitempty"`
}

func NewComplexityTab(c *model.Complexity) ComplexityTab {
	tab := ComplexityTab{Rows: []ComplexityRow{}, Bars: series.Project(c)}
	if len(tab.Bars) == 0 {
		tab.ChartPlaceholder = Placeholder(SectionComplexity)
	}
	if c == nil {
		tab.Placeholder = Placeholder(SectionComplexity)
		return tab
	}

	tab.Available = true
	tab.Totals = fmt.Sprintf("Functions: %d | Average: %.2f | Total: %g",
		c.TotalFunctions, c.AverageComplexity, c.TotalComplexity)
	for _, b := range c.Blocks {
		name := b.Name
		if name == "" {
			name = "unknown"
		}
		tab.Rows = append(tab.Rows, ComplexityRow{
			Name:       name,
			Kind:       b.Kind,
			Complexity: b.Complexity,
			Grade:      b.Grade,
			Badge:      classify.ClassifyGrade(b.Grade),
			File:       b.File,
			Location:   b.Location,
		})
	}
	if len(tab.Rows) == 0 {
		tab.Empty = noBlocksMessage
	}
	return tab
}

// LineCountTab is the line count section.
type LineCountTab struct {
	Available   bool                `json:"available"`
	Placeholder string              `json:"placeholder,omitempty"`
	Code        int                 `json:"code"`
	Comment     int                 `json:"comment"`
	Blank       int                 `json:"blank"`
	Files       int                 `json:"files"`
	Languages   []model.LanguageRow `json:"languages"`
}

func NewLineCountTab(lc *model.LineCount) LineCountTab {
	if lc == nil {
		return LineCountTab{Placeholder: Placeholder(SectionLineCount), Languages: []model.LanguageRow{}}
	}
	return LineCountTab{
		Available: true,
		Code:      lc.Code,
		Comment:   lc.Comment,
		Blank:     lc.Blank,
		Files:     lc.TotalFiles,
		Languages: lc.SortedLanguages(),
	}
}

// SeverityChip is the count of one lint severity.
type SeverityChip struct {
	Severity string         `json:"severity"`
	Count    int            `json:"count"`
	Color    classify.Color `json:"color"`
}

// IssueRow is a lint issue with its severity color.
type IssueRow struct {
	model.LintIssue
	Color classify.Color `json:"color"`
}

// LintTab is the lint section.
type LintTab struct {
	Available   bool   `json:"available"`
	Placeholder string `json:"placeholder,omitempty"`

	Badge       LintBadge      `json:"badge"`
	TotalIssues int            `json:"total_issues"`
	Chips       []SeverityChip `json:"chips"`
	Issues      []IssueRow     `json:"issues"`
	Empty       string         `json:"empty,omitempty"`
}

// NewLintTab builds the lint section. Chips follow the fixed severity order and only
// severities with a count are shown. Total issues falls back to the number of issues.
func NewLintTab(l *model.LintReport) LintTab {
	tab := LintTab{Badge: NewLintBadge(l), Chips: []SeverityChip{}, Issues: []IssueRow{}}
	if l == nil {
		tab.Placeholder = Placeholder(SectionLint)
		return tab
	}
	tab.Available = true

	tab.TotalIssues = len(l.Issues)
	if l.TotalIssues != nil {
		tab.TotalIssues = *l.TotalIssues
	}
	for _, sev := range model.Severities {
		if n := l.Counts[sev]; n > 0 {
			tab.Chips = append(tab.Chips, SeverityChip{Severity: sev, Count: n, Color: classify.SeverityColor(sev)})
		}
	}
	for _, issue := range l.Issues {
		tab.Issues = append(tab.Issues, IssueRow{LintIssue: issue, Color: classify.SeverityColor(issue.Severity)})
	}
	if len(tab.Issues) == 0 {
		tab.Empty = noIssuesMessage
	}
	return tab
}

// Page bundles every section of one report.
type Page struct {
	Scorecard  Scorecard     `json:"scorecard"`
	Complexity ComplexityTab `json:"complexity"`
	LineCount  LineCountTab  `json:"line_count"`
	Lint       LintTab       `json:"lint"`
}

func NewPage(r *model.Report) Page {
	return NewPageWith(markdown.Default(), r)
}

// NewPageWith is NewPage with a caller supplied sanitizer.
func NewPageWith(s *markdown.Sanitizer, r *model.Report) Page {
	if r == nil {
		r = &model.Report{}
	}
	return Page{
		Scorecard:  NewScorecardWith(s, r),
		Complexity: NewComplexityTab(r.Complexity),
		LineCount:  NewLineCountTab(r.LineCount),
		Lint:       NewLintTab(r.Lint),
	}
}
