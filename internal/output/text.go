package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/markdown"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/view"
)

const maxTablePathWidth = 48

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
)

// tokenColors maps classification tokens onto terminal colors.
var tokenColors = map[classify.Color]*color.Color{
	classify.ColorSuccess:  color.New(color.FgGreen),
	classify.ColorEmerald:  color.New(color.FgGreen, color.Bold),
	classify.ColorLime:     color.New(color.FgHiGreen),
	classify.ColorWarning:  color.New(color.FgYellow),
	classify.ColorOrange:   color.New(color.FgHiYellow, color.Bold),
	classify.ColorDanger:   color.New(color.FgRed),
	classify.ColorCritical: color.New(color.FgRed, color.Bold),
	classify.ColorInfo:     color.New(color.FgCyan),
	classify.ColorViolet:   color.New(color.FgMagenta),
	classify.ColorNeutral:  color.New(color.FgHiBlack),
}

func paint(c classify.Color, s string) string {
	if p, ok := tokenColors[c]; ok {
		return p.Sprint(s)
	}
	return s
}

// WriteText writes a human-readable report with colored tiers and tables.
func WriteText(w io.Writer, r *model.Report) error {
	page := view.NewPage(r)
	sc := page.Scorecard

	headerColor.Fprintln(w, "DevPulse Report")
	if sc.RepoURL != "" {
		fmt.Fprintf(w, "Repository:      %s\n", sc.RepoURL)
	}
	fmt.Fprintf(w, "Commit:          %s\n", sc.Commit)
	fmt.Fprintf(w, "Health:          %s (%s)\n",
		paint(sc.Health.Result.Color, sc.Health.Display), sc.Health.Result.Tier.Label())
	fmt.Fprintf(w, "AI probability:  %s\n", paint(sc.AIProbability.Result.Color, sc.AIProbability.Display))
	fmt.Fprintf(w, "Historical risk: %s\n", paint(sc.HistoricalRisk.Result.Color, sc.HistoricalRisk.Display))

	if !sc.RiskNotes.Empty() {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Risk Notes")
		fmt.Fprintln(w, indent(markdown.Terminal(sc.RiskNotes.Doc, 0)))
	}
	if len(sc.Recommendations) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Recommendations")
		for _, rec := range sc.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}

	fmt.Fprintln(w)
	if err := writeComplexityText(w, page.Complexity); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := writeLineCountText(w, page.LineCount); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := writeLintText(w, page.Lint); err != nil {
		return err
	}

	fmt.Fprintln(w)
	headerColor.Fprintln(w, "AI Summary")
	if sc.Summary.Empty() {
		dimColor.Fprintf(w, "  %s\n", view.Placeholder(view.SectionNarrative))
		return nil
	}
	fmt.Fprintln(w, indent(markdown.Terminal(sc.Summary.Doc, 0)))
	return nil
}

func writeComplexityText(w io.Writer, c view.ComplexityTab) error {
	headerColor.Fprintln(w, "Complexity")
	if !c.Available {
		dimColor.Fprintf(w, "  %s\n", c.Placeholder)
		return nil
	}
	fmt.Fprintf(w, "  %s\n", c.Totals)
	if c.Empty != "" {
		dimColor.Fprintf(w, "  %s\n", c.Empty)
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Kind", "Complexity", "Grade", "File"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, row := range c.Rows {
		file := row.File
		if row.Location != "" {
			file += ":" + row.Location
		}
		data = append(data, []string{
			row.Name,
			row.Kind,
			strconv.Itoa(row.Complexity),
			paint(row.Badge.Color, row.Grade.String()),
			truncatePath(file, maxTablePathWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeLineCountText(w io.Writer, lc view.LineCountTab) error {
	headerColor.Fprintln(w, "Line Counts")
	if !lc.Available {
		dimColor.Fprintf(w, "  %s\n", lc.Placeholder)
		return nil
	}
	fmt.Fprintf(w, "  Code: %d | Comments: %d | Blank: %d | Files: %d\n", lc.Code, lc.Comment, lc.Blank, lc.Files)
	if len(lc.Languages) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Language", "Code", "Files"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, l := range lc.Languages {
		data = append(data, []string{l.Name, strconv.Itoa(l.Code), strconv.Itoa(l.Files)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeLintText(w io.Writer, l view.LintTab) error {
	headerColor.Fprintln(w, "Lint")
	if !l.Available {
		dimColor.Fprintf(w, "  %s\n", l.Placeholder)
		return nil
	}
	fmt.Fprintf(w, "  Score: %s (%s)\n", paint(l.Badge.Result.Color, l.Badge.Display), l.Badge.Rating)
	fmt.Fprintf(w, "  Total issues: %d\n", l.TotalIssues)
	if len(l.Chips) > 0 {
		chips := make([]string, 0, len(l.Chips))
		for _, c := range l.Chips {
			chips = append(chips, paint(c.Color, fmt.Sprintf("%s: %d", c.Severity, c.Count)))
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(chips, "  "))
	}
	if l.Empty != "" {
		fmt.Fprintf(w, "  %s\n", paint(classify.ColorSuccess, l.Empty))
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Severity", "Code", "Location", "Message"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, issue := range l.Issues {
		data = append(data, []string{
			paint(issue.Color, issue.Severity),
			issue.Code,
			truncatePath(fmt.Sprintf("%s:%d", issue.File, issue.Line), maxTablePathWidth),
			issue.Message,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// truncatePath keeps the tail of long paths.
func truncatePath(p string, width int) string {
	r := []rune(p)
	if len(r) <= width {
		return p
	}
	return "..." + string(r[len(r)-width+3:])
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}
