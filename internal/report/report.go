// Package report converts raw analysis service payloads into the canonical report model.
//
// Payloads come from a backend whose schema keeps evolving. Missing, null or mistyped fields are
// absorbed here: the affected value falls back to its zero default, or the whole section is marked
// absent. Nothing above this package sees the raw payload.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/model"
)

// Normalize decodes a JSON payload and normalizes it. The only error is malformed JSON.
func Normalize(data []byte) (*model.Report, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return NormalizeValue(v), nil
}

// NormalizeValue normalizes an already decoded payload. It never fails.
func NormalizeValue(v any) *model.Report {
	r := &model.Report{
		AI: model.AIMetrics{Recommendations: []string{}},
	}

	root, ok := asObject(v)
	if !ok {
		absent("payload", "not a JSON object")
		return r
	}

	// POST /analyze wraps the report as {report_id, results}.
	if inner, ok := asObject(root["results"]); ok {
		if id, ok := integer(root, "report_id", "id"); ok {
			r.ReportID = &id
		}
		root = inner
	}
	if r.ReportID == nil {
		if id, ok := integer(root, "report_id", "id"); ok {
			r.ReportID = &id
		}
	}

	r.RepoURL = text(root, "repo_url")
	r.CommitID = text(root, "git_sha", "commit")

	health, _ := number(root, "code_health_score")
	r.HealthScore = classify.Clamp(health, classify.ScaleHealth)
	risk, _ := number(root, "historical_risk_score")
	r.HistoricalRiskScore = classify.Clamp(risk, classify.ScaleProbability)

	r.AI = normalizeAI(root["ai_metrics"])
	r.AISummary = normalizeNarrative(root["ai_summary"])

	lint, _ := field(root, "pylint", "lint")
	r.Lint = normalizeLint(lint)

	cc, _ := field(root, "radon", "complexity")
	r.Complexity = normalizeComplexity(cc)

	cloc, _ := field(root, "cloc", "line_counts")
	r.LineCount = normalizeLineCount(cloc)

	return r
}

func normalizeAI(v any) model.AIMetrics {
	ai := model.AIMetrics{Recommendations: []string{}}
	obj, ok := asObject(v)
	if !ok {
		absent("ai_metrics", "missing or not an object")
		return ai
	}

	p, _ := number(obj, "ai_probability", "probability")
	ai.Probability = classify.Clamp(p, classify.ScaleProbability)
	ai.RiskNotes = text(obj, "ai_risk_notes", "risk_notes")

	switch recs := obj["recommendations"].(type) {
	case []any:
		for _, item := range recs {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				ai.Recommendations = append(ai.Recommendations, strings.TrimSpace(s))
			}
		}
	case string:
		if s := strings.TrimSpace(recs); s != "" {
			ai.Recommendations = append(ai.Recommendations, s)
		}
	}
	return ai
}

// normalizeNarrative accepts a markdown string, or any structured value which is shown as JSON.
func normalizeNarrative(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(n)
	case map[string]any, []any:
		data, err := json.MarshalIndent(n, "", "  ")
		if err != nil {
			return ""
		}
		return "```json\n" + string(data) + "\n```"
	default:
		absent("ai_summary", "unsupported type")
		return ""
	}
}

func normalizeLint(v any) *model.LintReport {
	obj, ok := asObject(v)
	if !ok || !hasAny(obj, "score", "total_issues", "issue_counts", "issues", "messages") {
		absent("lint", "missing or unrecognized shape")
		return nil
	}

	lr := &model.LintReport{
		Counts: map[string]int{},
		Issues: []model.LintIssue{},
	}
	if s, ok := number(obj, "score"); ok {
		lr.Score = classify.Clamp(s, classify.ScaleLint)
		lr.ScoreKnown = true
	}
	if n, ok := integer(obj, "total_issues"); ok && n >= 0 {
		lr.TotalIssues = &n
	}

	raw, _ := field(obj, "issues", "messages")
	items, _ := raw.([]any)
	for _, item := range items {
		io, ok := asObject(item)
		if !ok {
			continue
		}
		line, _ := integer(io, "line")
		lr.Issues = append(lr.Issues, model.LintIssue{
			Code:     text(io, "code", "message-id"),
			File:     text(io, "file", "path"),
			Line:     line,
			Message:  text(io, "message"),
			Severity: foldSeverity(text(io, "severity", "type")),
		})
	}

	if counts, ok := asObject(obj["issue_counts"]); ok {
		for k, val := range counts {
			sev := foldSeverity(k)
			n, ok := val.(float64)
			if !model.IsSeverity(sev) || !ok || n < 0 {
				continue
			}
			lr.Counts[sev] += int(n)
		}
	} else {
		for _, issue := range lr.Issues {
			if model.IsSeverity(issue.Severity) {
				lr.Counts[issue.Severity]++
			}
		}
	}
	return lr
}

func foldSeverity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "fatal" {
		return model.SeverityError
	}
	return s
}

func normalizeLineCount(v any) *model.LineCount {
	obj, ok := asObject(v)
	if !ok || !hasAny(obj, "code", "comment", "blank", "total_files", "n_files", "languages") {
		absent("line_count", "missing or unrecognized shape")
		return nil
	}

	lc := &model.LineCount{
		Code:       count(obj, "code"),
		Comment:    count(obj, "comment"),
		Blank:      count(obj, "blank"),
		TotalFiles: count(obj, "total_files", "n_files"),
		Languages:  map[string]model.LanguageCount{},
	}
	langs, _ := asObject(obj["languages"])
	for name, entry := range langs {
		eo, ok := asObject(entry)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		lc.Languages[name] = model.LanguageCount{
			Code:  count(eo, "code"),
			Files: count(eo, "files", "nFiles"),
		}
	}
	return lc
}
