// Package model defines the canonical report types shared across devpulse.
package model

import (
	"sort"
	"strings"
)

// CommitPrefixLen is the number of commit characters shown in views.
const CommitPrefixLen = 10

// Grade is a complexity letter grade.
type Grade int

const (
	GradeUnknown Grade = iota
	GradeA
	GradeB
	GradeC
	GradeD
	GradeE
	GradeF
)

func (g Grade) String() string {
	switch g {
	case GradeA:
		return "A"
	case GradeB:
		return "B"
	case GradeC:
		return "C"
	case GradeD:
		return "D"
	case GradeE:
		return "E"
	case GradeF:
		return "F"
	default:
		return "unknown"
	}
}

// ParseGrade maps a letter to a Grade. Anything else is GradeUnknown.
func ParseGrade(s string) Grade {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return GradeA
	case "B":
		return GradeB
	case "C":
		return GradeC
	case "D":
		return GradeD
	case "E":
		return GradeE
	case "F":
		return GradeF
	default:
		return GradeUnknown
	}
}

// MarshalText renders the grade as its letter.
func (g Grade) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// Lint severities.
const (
	SeverityError      = "error"
	SeverityWarning    = "warning"
	SeverityConvention = "convention"
	SeverityRefactor   = "refactor"
)

// Severities lists the known lint severities in display order.
var Severities = []string{SeverityError, SeverityWarning, SeverityConvention, SeverityRefactor}

// IsSeverity reports whether s is one of the known lint severities.
func IsSeverity(s string) bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

// AIMetrics holds the AI-derived risk signal.
type AIMetrics struct {
	Probability     float64  `json:"probability"`
	RiskNotes       string   `json:"risk_notes,omitempty"`
	Recommendations []string `json:"recommendations"`
}

// LintIssue is a single linter message.
type LintIssue struct {
	Code     string `json:"code"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// LintReport is the normalized linter result.
type LintReport struct {
	Score       float64        `json:"score"`
	ScoreKnown  bool           `json:"score_known"`
	TotalIssues *int           `json:"total_issues,omitempty"`
	Counts      map[string]int `json:"issue_counts"`
	Issues      []LintIssue    `json:"issues"`
}

// Block is one function or method level complexity measurement.
type Block struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Complexity int    `json:"complexity"`
	Grade      Grade  `json:"grade"`
	File       string `json:"file"`
	Location   string `json:"location,omitempty"`
}

// Complexity is the normalized complexity report, independent of the source shape.
type Complexity struct {
	TotalFunctions    int     `json:"total_functions"`
	AverageComplexity float64 `json:"average_complexity"`
	TotalComplexity   float64 `json:"total_complexity"`
	Blocks            []Block `json:"blocks"`
}

// LanguageCount is the per-language slice of a line count report.
type LanguageCount struct {
	Code  int `json:"code"`
	Files int `json:"files"`
}

// LanguageRow is a named LanguageCount, used for ordered display.
type LanguageRow struct {
	Name string
	LanguageCount
}

// LineCount is the normalized line count report.
type LineCount struct {
	Code       int                      `json:"code"`
	Comment    int                      `json:"comment"`
	Blank      int                      `json:"blank"`
	TotalFiles int                      `json:"total_files"`
	Languages  map[string]LanguageCount `json:"languages"`
}

// SortedLanguages returns the language breakdown ordered by code lines, then name.
func (lc *LineCount) SortedLanguages() []LanguageRow {
	rows := make([]LanguageRow, 0, len(lc.Languages))
	for name, c := range lc.Languages {
		rows = append(rows, LanguageRow{Name: name, LanguageCount: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Code != rows[j].Code {
			return rows[i].Code > rows[j].Code
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// Report is the canonical, schema-stable form of one analysis result.
// Optional sections are nil when the payload did not carry them.
type Report struct {
	ReportID            *int        `json:"report_id,omitempty"`
	RepoURL             string      `json:"repo_url,omitempty"`
	CommitID            string      `json:"commit_id,omitempty"`
	HealthScore         float64     `json:"health_score"`
	HistoricalRiskScore float64     `json:"historical_risk_score"`
	AI                  AIMetrics   `json:"ai_metrics"`
	AISummary           string      `json:"ai_summary,omitempty"`
	Lint                *LintReport `json:"lint,omitempty"`
	Complexity          *Complexity `json:"complexity,omitempty"`
	LineCount           *LineCount  `json:"line_count,omitempty"`
}

// ShortCommit returns the commit prefix used for display, or "N/A".
func (r *Report) ShortCommit() string {
	if r.CommitID == "" {
		return "N/A"
	}
	if len(r.CommitID) > CommitPrefixLen {
		return r.CommitID[:CommitPrefixLen]
	}
	return r.CommitID
}
