// Package view builds renderer-independent view models from a canonical report.
//
// Terminal, HTML and text renderers all read these models, so labels, rounding and colors are
// decided once. Absent sections carry a placeholder instead of data.
package view

import (
	"fmt"
	"math"

	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/model"
)

// Section names used in placeholders.
const (
	SectionComplexity = "complexity"
	SectionLineCount  = "line count"
	SectionLint       = "lint"
	SectionNarrative  = "summary"
)

// Placeholder is the text shown for an absent section.
func Placeholder(section string) string {
	return fmt.Sprintf("No %s data available", section)
}

// GaugeSweep is the needle sweep of a full-scale gauge, in degrees.
const GaugeSweep = 180

// Gauge is a semicircular health gauge.
type Gauge struct {
	Value   float64         `json:"value"`
	Display string          `json:"display"`
	Angle   float64         `json:"angle"`
	Result  classify.Result `json:"result"`
}

// NewGauge builds a gauge for a 0-100 health score. Out of range scores are clamped.
func NewGauge(health float64) Gauge {
	res := classify.Classify(health, classify.ScaleHealth)
	return Gauge{
		Value:   res.Value,
		Display: fmt.Sprintf("%d/100", int(math.Round(res.Value))),
		Angle:   res.Value / 100 * GaugeSweep,
		Result:  res,
	}
}

// Percent is a 0-1 score shown as a whole percentage.
type Percent struct {
	Label   string          `json:"label"`
	Display string          `json:"display"`
	Result  classify.Result `json:"result"`
}

func newRiskPercent(label string, p float64) Percent {
	res := classify.ClassifyRisk(p)
	return Percent{
		Label:   label,
		Display: fmt.Sprintf("%d%%", int(math.Round(res.Value*100))),
		Result:  res,
	}
}

// Scorecard is the summary header of a report.
type Scorecard struct {
	RepoURL         string             `json:"repo_url,omitempty"`
	Commit          string             `json:"commit"`
	Health          Gauge              `json:"health"`
	AIProbability   Percent            `json:"ai_probability"`
	HistoricalRisk  Percent            `json:"historical_risk"`
	RiskNotes       markdown.Narrative `json:"risk_notes"`
	Recommendations []string           `json:"recommendations"`
	Summary         markdown.Narrative `json:"summary"`
}

// NewScorecard builds the scorecard. Narratives go through the default sanitizer.
func NewScorecard(r *model.Report) Scorecard {
	return NewScorecardWith(markdown.Default(), r)
}

// NewScorecardWith is NewScorecard with a caller supplied sanitizer.
func NewScorecardWith(s *markdown.Sanitizer, r *model.Report) Scorecard {
	if s == nil {
		s = markdown.Default()
	}
	if r == nil {
		r = &model.Report{}
	}
	recs := r.AI.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return Scorecard{
		RepoURL:         r.RepoURL,
		Commit:          r.ShortCommit(),
		Health:          NewGauge(r.HealthScore),
		AIProbability:   newRiskPercent("AI Probability", r.AI.Probability),
		HistoricalRisk:  newRiskPercent("Historical Risk", r.HistoricalRiskScore),
		RiskNotes:       s.Narrative(r.AI.RiskNotes),
		Recommendations: recs,
		Summary:         s.Narrative(r.AISummary),
	}
}

// LintBadge is the lint score badge.
type LintBadge struct {
	Known   bool            `json:"known"`
	Display string          `json:"display"`
	Rating  string          `json:"rating"`
	Result  classify.Result `json:"result"`
}

// NewLintBadge formats the score as "8.50/10". An unknown score shows N/A and classifies as 0.
func NewLintBadge(l *model.LintReport) LintBadge {
	if l == nil || !l.ScoreKnown {
		res := classify.Classify(0, classify.ScaleLint)
		return LintBadge{Display: "N/A", Rating: res.Tier.Label(), Result: res}
	}
	res := classify.Classify(l.Score, classify.ScaleLint)
	return LintBadge{
		Known:   true,
		Display: fmt.Sprintf("%.2f/10", res.Value),
		Rating:  res.Tier.Label(),
		Result:  res,
	}
}
