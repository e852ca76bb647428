package output

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/series"
	"github.com/sprite-ai/devpulse/internal/view"
)

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>DevPulse Report</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 960px; margin: 40px auto; padding: 0 20px; background: #282a36; color: #f8f8f2; }
  h1 { color: #bd93f9; }
  h2 { color: #8be9fd; border-bottom: 1px solid #44475a; padding-bottom: 4px; }
  .summary { background: #343746; padding: 16px; border-radius: 8px; margin-bottom: 24px; display: flex; gap: 32px; align-items: center; }
  .metric { font-size: 1.4em; font-weight: bold; }
  .muted { color: #6272a4; }
  .chip { display: inline-block; padding: 2px 10px; border-radius: 12px; margin-right: 8px; color: #282a36; font-weight: bold; }
  .badge { display: inline-block; min-width: 20px; text-align: center; border-radius: 4px; color: #282a36; font-weight: bold; }
  .bar { height: 14px; border-radius: 3px; }
  table { width: 100%; border-collapse: collapse; }
  th { text-align: left; padding: 8px 12px; background: #44475a; color: #f8f8f2; }
  td { padding: 8px 12px; border-bottom: 1px solid #44475a; }
  tr:hover { background: #343746; }
  code, pre { background: #343746; padding: 2px 6px; border-radius: 4px; font-size: 0.9em; }
  pre { padding: 12px; overflow-x: auto; }
  blockquote { border-left: 3px solid #6272a4; margin-left: 0; padding-left: 12px; color: #bfbfbf; }
  a { color: #8be9fd; }
  footer { margin-top: 32px; color: #6272a4; font-size: 0.85em; }
</style>
</head>
<body>
<h1>DevPulse Report</h1>
`

// WriteHTML writes a self-contained HTML page. Narratives are rendered from the sanitized
// tree; every other string is escaped.
func WriteHTML(w io.Writer, r *model.Report) error {
	page := view.NewPage(r)
	sc := page.Scorecard
	esc := html.EscapeString

	var b strings.Builder
	b.WriteString(pageHead)

	if sc.RepoURL != "" {
		fmt.Fprintf(&b, "<p><strong>Repository:</strong> %s &middot; <strong>Commit:</strong> <code>%s</code></p>\n", esc(sc.RepoURL), esc(sc.Commit))
	} else {
		fmt.Fprintf(&b, "<p><strong>Commit:</strong> <code>%s</code></p>\n", esc(sc.Commit))
	}

	b.WriteString(`<div class="summary">` + "\n")
	b.WriteString(gaugeSVG(sc.Health))
	fmt.Fprintf(&b, `  <div><div class="muted">%s</div><div class="metric" style="color:%s">%s</div></div>`+"\n",
		esc(sc.AIProbability.Label), sc.AIProbability.Result.Color.Hex(), esc(sc.AIProbability.Display))
	fmt.Fprintf(&b, `  <div><div class="muted">%s</div><div class="metric" style="color:%s">%s</div></div>`+"\n",
		esc(sc.HistoricalRisk.Label), sc.HistoricalRisk.Result.Color.Hex(), esc(sc.HistoricalRisk.Display))
	b.WriteString("</div>\n")

	if !sc.RiskNotes.Empty() {
		b.WriteString("<h2>Risk Notes</h2>\n")
		b.WriteString(markdown.HTML(sc.RiskNotes.Doc))
		b.WriteString("\n")
	}
	if len(sc.Recommendations) > 0 {
		b.WriteString("<h2>Recommendations</h2>\n<ul>\n")
		for _, rec := range sc.Recommendations {
			fmt.Fprintf(&b, "<li>%s</li>\n", esc(rec))
		}
		b.WriteString("</ul>\n")
	}

	writeComplexityHTML(&b, page.Complexity)
	writeLineCountHTML(&b, page.LineCount)
	writeLintHTML(&b, page.Lint)

	b.WriteString("<h2>AI Summary</h2>\n")
	if sc.Summary.Empty() {
		fmt.Fprintf(&b, "<p class=\"muted\">%s</p>\n", esc(view.Placeholder(view.SectionNarrative)))
	} else {
		b.WriteString(markdown.HTML(sc.Summary.Doc))
		b.WriteString("\n")
	}

	b.WriteString(`<footer>Generated by <strong>devpulse</strong></footer>
</body>
</html>
`)
	_, err := io.WriteString(w, b.String())
	return err
}

// gaugeSVG draws a semicircle with a needle at the gauge angle.
func gaugeSVG(g view.Gauge) string {
	const cx, cy, radius = 80.0, 80.0, 64.0
	rad := math.Pi - g.Angle*math.Pi/180
	nx := cx + (radius-10)*math.Cos(rad)
	ny := cy - (radius-10)*math.Sin(rad)
	hex := g.Result.Color.Hex()
	return fmt.Sprintf(`  <svg width="160" height="100" viewBox="0 0 160 100" role="img" aria-label="Health %s">
    <path d="M 16 80 A 64 64 0 0 1 144 80" fill="none" stroke="#44475a" stroke-width="12"/>
    <path d="M 16 80 A 64 64 0 0 1 144 80" fill="none" stroke="%s" stroke-width="12" pathLength="180" stroke-dasharray="%.1f 180"/>
    <line x1="80" y1="80" x2="%.1f" y2="%.1f" stroke="#f8f8f2" stroke-width="3"/>
    <text x="80" y="98" text-anchor="middle" fill="%s" font-weight="bold">%s</text>
  </svg>
`, html.EscapeString(g.Display), hex, g.Angle, nx, ny, hex, html.EscapeString(g.Display))
}

func writeComplexityHTML(b *strings.Builder, c view.ComplexityTab) {
	esc := html.EscapeString
	b.WriteString("<h2>Complexity</h2>\n")
	if !c.Available {
		fmt.Fprintf(b, "<p class=\"muted\">%s</p>\n", esc(c.Placeholder))
		return
	}
	fmt.Fprintf(b, "<p>%s</p>\n", esc(c.Totals))
	if c.Empty != "" {
		fmt.Fprintf(b, "<p class=\"muted\">%s</p>\n", esc(c.Empty))
		return
	}

	if len(c.Bars) > 0 {
		peak := max(series.Max(c.Bars), 1)
		b.WriteString("<table>\n<tbody>\n")
		for _, bar := range c.Bars {
			width := float64(bar.Value) / float64(peak) * 100
			fmt.Fprintf(b, `<tr><td><code>%s</code></td><td style="width:60%%"><div class="bar" style="width:%.1f%%;background:%s"></div></td><td>%d</td></tr>`+"\n",
				esc(bar.Label), width, bar.Color.Hex(), bar.Value)
		}
		b.WriteString("</tbody></table>\n<p class=\"muted\">")
		for _, e := range series.Legend() {
			fmt.Fprintf(b, `<span class="chip" style="background:%s">%s</span>`, e.Color.Hex(), esc(e.Label))
		}
		b.WriteString("</p>\n")
	}

	b.WriteString("<table>\n<thead><tr><th>Name</th><th>Kind</th><th>Complexity</th><th>Grade</th><th>File</th></tr></thead>\n<tbody>\n")
	for _, row := range c.Rows {
		loc := row.File
		if row.Location != "" {
			loc += ":" + row.Location
		}
		fmt.Fprintf(b, `<tr><td>%s</td><td>%s</td><td>%d</td><td><span class="badge" style="background:%s">%s</span></td><td><code>%s</code></td></tr>`+"\n",
			esc(row.Name), esc(row.Kind), row.Complexity, row.Badge.Color.Hex(), esc(row.Grade.String()), esc(loc))
	}
	b.WriteString("</tbody></table>\n")
}

func writeLineCountHTML(b *strings.Builder, lc view.LineCountTab) {
	esc := html.EscapeString
	b.WriteString("<h2>Line Counts</h2>\n")
	if !lc.Available {
		fmt.Fprintf(b, "<p class=\"muted\">%s</p>\n", esc(lc.Placeholder))
		return
	}
	fmt.Fprintf(b, "<p>Code: <strong>%d</strong> &middot; Comments: <strong>%d</strong> &middot; Blank: <strong>%d</strong> &middot; Files: <strong>%d</strong></p>\n",
		lc.Code, lc.Comment, lc.Blank, lc.Files)
	if len(lc.Languages) == 0 {
		return
	}
	b.WriteString("<table>\n<thead><tr><th>Language</th><th>Code</th><th>Files</th></tr></thead>\n<tbody>\n")
	for _, l := range lc.Languages {
		fmt.Fprintf(b, "<tr><td>%s</td><td>%d</td><td>%d</td></tr>\n", esc(l.Name), l.Code, l.Files)
	}
	b.WriteString("</tbody></table>\n")
}

func writeLintHTML(b *strings.Builder, l view.LintTab) {
	esc := html.EscapeString
	b.WriteString("<h2>Lint</h2>\n")
	if !l.Available {
		fmt.Fprintf(b, "<p class=\"muted\">%s</p>\n", esc(l.Placeholder))
		return
	}
	fmt.Fprintf(b, `<p>Score: <span class="metric" style="color:%s">%s</span> <span class="muted">%s</span> &middot; Issues: <strong>%d</strong></p>`+"\n",
		l.Badge.Result.Color.Hex(), esc(l.Badge.Display), esc(l.Badge.Rating), l.TotalIssues)
	if len(l.Chips) > 0 {
		b.WriteString("<p>")
		for _, c := range l.Chips {
			fmt.Fprintf(b, `<span class="chip" style="background:%s">%s: %d</span>`, c.Color.Hex(), esc(c.Severity), c.Count)
		}
		b.WriteString("</p>\n")
	}
	if l.Empty != "" {
		fmt.Fprintf(b, "<p class=\"muted\">%s</p>\n", esc(l.Empty))
		return
	}
	b.WriteString("<table>\n<thead><tr><th>Severity</th><th>Code</th><th>Location</th><th>Message</th></tr></thead>\n<tbody>\n")
	for _, issue := range l.Issues {
		fmt.Fprintf(b, `<tr><td style="color:%s">%s</td><td>%s</td><td><code>%s:%d</code></td><td>%s</td></tr>`+"\n",
			issue.Color.Hex(), esc(issue.Severity), esc(issue.Code), esc(issue.File), issue.Line, esc(issue.Message))
	}
	b.WriteString("</tbody></table>\n")
}
