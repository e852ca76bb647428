package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/view"
)

// WriteMarkdown writes the report as a markdown document suitable for a PR comment.
func WriteMarkdown(w io.Writer, r *model.Report) error {
	page := view.NewPage(r)
	sc := page.Scorecard

	fmt.Fprintf(w, "## DevPulse Report\n\n")
	if sc.RepoURL != "" {
		fmt.Fprintf(w, "**Repository:** %s  \n", sc.RepoURL)
	}
	fmt.Fprintf(w, "**Commit:** `%s`\n\n", sc.Commit)
	fmt.Fprintf(w, "**Health:** %s (%s) | **AI Probability:** %s | **Historical Risk:** %s\n\n",
		sc.Health.Display, sc.Health.Result.Tier.Label(), sc.AIProbability.Display, sc.HistoricalRisk.Display)

	if !sc.RiskNotes.Empty() {
		fmt.Fprintf(w, "### Risk Notes\n\n%s\n\n", quote(markdown.PlainText(sc.RiskNotes.Doc)))
	}
	if len(sc.Recommendations) > 0 {
		fmt.Fprintf(w, "### Recommendations\n\n")
		for _, rec := range sc.Recommendations {
			fmt.Fprintf(w, "- %s\n", cell(rec))
		}
		fmt.Fprintln(w)
	}

	c := page.Complexity
	fmt.Fprintf(w, "### Complexity\n\n")
	switch {
	case !c.Available:
		fmt.Fprintf(w, "%s\n\n", c.Placeholder)
	case c.Empty != "":
		fmt.Fprintf(w, "%s\n\n%s\n\n", c.Totals, c.Empty)
	default:
		fmt.Fprintf(w, "%s\n\n", c.Totals)
		fmt.Fprintln(w, "| Name | Kind | Complexity | Grade | File |")
		fmt.Fprintln(w, "|------|------|-----------:|:-----:|------|")
		for _, row := range c.Rows {
			loc := row.File
			if row.Location != "" {
				loc += ":" + row.Location
			}
			if loc != "" {
				loc = "`" + loc + "`"
			}
			fmt.Fprintf(w, "| %s | %s | %d | %s | %s |\n", cell(row.Name), row.Kind, row.Complexity, row.Grade, loc)
		}
		fmt.Fprintln(w)
	}

	lc := page.LineCount
	fmt.Fprintf(w, "### Line Counts\n\n")
	if !lc.Available {
		fmt.Fprintf(w, "%s\n\n", lc.Placeholder)
	} else {
		fmt.Fprintf(w, "**Code:** %d | **Comments:** %d | **Blank:** %d | **Files:** %d\n\n", lc.Code, lc.Comment, lc.Blank, lc.Files)
		if len(lc.Languages) > 0 {
			fmt.Fprintln(w, "| Language | Code | Files |")
			fmt.Fprintln(w, "|----------|-----:|------:|")
			for _, l := range lc.Languages {
				fmt.Fprintf(w, "| %s | %d | %d |\n", cell(l.Name), l.Code, l.Files)
			}
			fmt.Fprintln(w)
		}
	}

	l := page.Lint
	fmt.Fprintf(w, "### Lint\n\n")
	if !l.Available {
		fmt.Fprintf(w, "%s\n\n", l.Placeholder)
	} else {
		fmt.Fprintf(w, "**Score:** %s (%s) | **Issues:** %d\n\n", l.Badge.Display, l.Badge.Rating, l.TotalIssues)
		if len(l.Chips) > 0 {
			chips := make([]string, 0, len(l.Chips))
			for _, c := range l.Chips {
				chips = append(chips, fmt.Sprintf("%s: %d", c.Severity, c.Count))
			}
			fmt.Fprintf(w, "%s\n\n", strings.Join(chips, " · "))
		}
		if l.Empty != "" {
			fmt.Fprintf(w, "%s\n\n", l.Empty)
		} else {
			fmt.Fprintln(w, "| Severity | Code | Location | Message |")
			fmt.Fprintln(w, "|----------|------|----------|---------|")
			for _, issue := range l.Issues {
				fmt.Fprintf(w, "| %s | %s | `%s:%d` | %s |\n", issue.Severity, issue.Code, issue.File, issue.Line, cell(issue.Message))
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "### AI Summary\n\n")
	if sc.Summary.Empty() {
		fmt.Fprintln(w, view.Placeholder(view.SectionNarrative))
		return nil
	}
	// Plain text only; service markup is not trusted in a comment.
	_, err := fmt.Fprintln(w, quote(markdown.PlainText(sc.Summary.Doc)))
	return err
}

// cell escapes text for a markdown table cell or list item.
func cell(s string) string {
	r := strings.NewReplacer("|", `\|`, "\n", " ", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func quote(s string) string {
	lines := strings.Split(escapeAngles(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("> "+l, " ")
	}
	return strings.Join(lines, "\n")
}

func escapeAngles(s string) string {
	return strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(s)
}
