package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/series"
	"github.com/sprite-ai/devpulse/internal/session"
	"github.com/sprite-ai/devpulse/internal/view"
)

const (
	gaugeWidth     = 30
	maxChartLabel  = 24
	collapsedLines = 8
)

// renderGauge draws the health score as a horizontal meter.
func renderGauge(g view.Gauge) string {
	filled := int(math.Round(g.Value / 100 * gaugeWidth))
	style := tokenStyle(g.Result.Color)
	bar := style.Render(strings.Repeat("█", filled)) +
		labelStyle.Render(strings.Repeat("░", gaugeWidth-filled))
	return fmt.Sprintf("%s %s %s", bar, valueStyle.Render(g.Display), style.Render(g.Result.Tier.Label()))
}

func renderPercent(p view.Percent) string {
	return labelStyle.Render(p.Label+": ") + tokenStyle(p.Result.Color).Bold(true).Render(p.Display)
}

func renderScorecard(sc view.Scorecard) string {
	var b strings.Builder
	if sc.RepoURL != "" {
		b.WriteString(labelStyle.Render("Repository: ") + sc.RepoURL + "\n")
	}
	b.WriteString(labelStyle.Render("Commit: ") + valueStyle.Render(sc.Commit) + "\n\n")
	b.WriteString(sectionHeaderStyle.Render("Code Health") + "\n")
	b.WriteString(renderGauge(sc.Health) + "\n\n")
	b.WriteString(renderPercent(sc.AIProbability) + "    " + renderPercent(sc.HistoricalRisk))

	if !sc.RiskNotes.Empty() {
		b.WriteString("\n\n" + sectionHeaderStyle.Render("Risk Notes") + "\n")
		b.WriteString(markdown.Terminal(sc.RiskNotes.Doc, 0))
	}
	if len(sc.Recommendations) > 0 {
		b.WriteString("\n\n" + sectionHeaderStyle.Render("Recommendations") + "\n")
		for _, rec := range sc.Recommendations {
			b.WriteString("• " + rec + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderNarrative shows the AI summary, clipped while collapsed.
func renderNarrative(n markdown.Narrative, expanded bool, width int) string {
	header := sectionHeaderStyle.Render("AI Summary")
	if n.Empty() {
		return header + "\n" + placeholderStyle.Render(view.Placeholder(view.SectionNarrative))
	}
	body := markdown.Terminal(n.Doc, width)
	if !n.Collapsible {
		return header + "\n" + body
	}
	if expanded {
		return header + "\n" + body + "\n" + helpBarStyle.Render("press e to collapse")
	}
	lines := strings.Split(body, "\n")
	if len(lines) > collapsedLines {
		lines = lines[:collapsedLines]
	}
	hint := fmt.Sprintf("… %d words, press e to expand", n.Words)
	return header + "\n" + strings.Join(lines, "\n") + "\n" + helpBarStyle.Render(hint)
}

func renderTabs(active session.Tab) string {
	parts := make([]string, 0, len(session.Tabs))
	for i, t := range session.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t.Title())
		if t == active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderTab(p view.Page, t session.Tab, width int) string {
	switch t {
	case session.TabLineCount:
		return renderLineCount(p.LineCount)
	case session.TabLint:
		return renderLint(p.Lint, width)
	default:
		return renderComplexity(p.Complexity, width)
	}
}

func renderComplexity(c view.ComplexityTab, width int) string {
	if !c.Available {
		return placeholderStyle.Render(c.Placeholder)
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render(c.Totals) + "\n\n")

	b.WriteString(sectionHeaderStyle.Render("Function Complexity") + "\n")
	if len(c.Bars) == 0 {
		b.WriteString(placeholderStyle.Render(c.ChartPlaceholder) + "\n")
	} else {
		b.WriteString(renderChart(c.Bars, width) + "\n")
		b.WriteString(renderLegend() + "\n")
	}

	b.WriteString("\n" + sectionHeaderStyle.Render("Blocks") + "\n")
	if c.Empty != "" {
		b.WriteString(placeholderStyle.Render(c.Empty))
		return b.String()
	}
	for _, row := range c.Rows {
		grade := badgeStyle(row.Badge.Color).Render(row.Grade.String())
		line := fmt.Sprintf("%s %s", grade, valueStyle.Render(row.Name))
		if row.Kind != "" {
			line += labelStyle.Render(" " + row.Kind)
		}
		line += fmt.Sprintf(" complexity %d", row.Complexity)
		if row.File != "" {
			loc := row.File
			if row.Location != "" {
				loc += ":" + row.Location
			}
			line += labelStyle.Render("  " + loc)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderChart draws one horizontal bar per series entry, scaled to the largest value.
func renderChart(bars []series.Bar, width int) string {
	labelWidth := 0
	for _, bar := range bars {
		labelWidth = max(labelWidth, min(lipgloss.Width(bar.Label), maxChartLabel))
	}
	barWidth := max(width-labelWidth-8, 10)
	peak := max(series.Max(bars), 1)

	lines := make([]string, 0, len(bars))
	for _, bar := range bars {
		n := max(bar.Value*barWidth/peak, 0)
		if bar.Value > 0 && n == 0 {
			n = 1
		}
		label := truncate(bar.Label, maxChartLabel)
		line := fmt.Sprintf("%-*s %s %d", labelWidth, label,
			tokenStyle(bar.Color).Render(strings.Repeat("▇", n)), bar.Value)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderLegend() string {
	parts := make([]string, 0, 3)
	for _, e := range series.Legend() {
		parts = append(parts, tokenStyle(e.Color).Render("■")+" "+labelStyle.Render(e.Label))
	}
	return strings.Join(parts, "  ")
}

func renderLineCount(lc view.LineCountTab) string {
	if !lc.Available {
		return placeholderStyle.Render(lc.Placeholder)
	}
	var b strings.Builder
	stats := []struct {
		label string
		value int
	}{
		{"Code", lc.Code},
		{"Comments", lc.Comment},
		{"Blank", lc.Blank},
		{"Files", lc.Files},
	}
	for _, s := range stats {
		b.WriteString(fmt.Sprintf("%s %s   ", labelStyle.Render(s.label+":"), valueStyle.Render(fmt.Sprint(s.value))))
	}
	b.WriteString("\n\n" + sectionHeaderStyle.Render("Languages") + "\n")
	if len(lc.Languages) == 0 {
		b.WriteString(placeholderStyle.Render("No language breakdown"))
		return b.String()
	}
	for _, l := range lc.Languages {
		b.WriteString(fmt.Sprintf("%-16s %8d lines %5d files\n", truncate(l.Name, 16), l.Code, l.Files))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderLint(l view.LintTab, width int) string {
	if !l.Available {
		return placeholderStyle.Render(l.Placeholder)
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Score: ") + badgeStyle(l.Badge.Result.Color).Render(l.Badge.Display) +
		" " + tokenStyle(l.Badge.Result.Color).Render(l.Badge.Rating) + "\n")
	b.WriteString(labelStyle.Render("Total issues: ") + valueStyle.Render(fmt.Sprint(l.TotalIssues)) + "\n")

	if len(l.Chips) > 0 {
		chips := make([]string, 0, len(l.Chips))
		for _, c := range l.Chips {
			chips = append(chips, tokenStyle(c.Color).Render(fmt.Sprintf("%s: %d", c.Severity, c.Count)))
		}
		b.WriteString(strings.Join(chips, "  ") + "\n")
	}

	b.WriteString("\n")
	if l.Empty != "" {
		b.WriteString(tokenStyle(classify.ColorSuccess).Render(l.Empty))
		return b.String()
	}
	for _, issue := range l.Issues {
		head := tokenStyle(issue.Color).Bold(true).Render(fmt.Sprintf("%-10s %s", issue.Severity, issue.Code))
		loc := labelStyle.Render(fmt.Sprintf("%s:%d", issue.File, issue.Line))
		msg := truncate(issue.Message, max(width-lipgloss.Width(loc)-20, 20))
		b.WriteString(fmt.Sprintf("%s %s %s\n", head, loc, msg))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
