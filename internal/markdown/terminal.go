package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	mdHeadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bd93f9")).
			Bold(true)

	mdEmphasisStyle = lipgloss.NewStyle().Italic(true)
	mdStrongStyle   = lipgloss.NewStyle().Bold(true)

	mdCodeSpanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffb86c"))

	mdCodeBlockStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f8f8f2")).
				PaddingLeft(2)

	mdLinkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8be9fd")).
			Underline(true)

	mdDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272a4"))
)

// Terminal renders n with ANSI styling, wrapping paragraphs at width (0 disables wrapping).
func Terminal(n *Node, width int) string {
	if n == nil {
		return ""
	}
	blocks := terminalBlocks(n.Children, width)
	return strings.Join(blocks, "\n\n")
}

func terminalBlocks(nodes []*Node, width int) []string {
	var out []string
	var inline []*Node
	flush := func() {
		if len(inline) > 0 {
			out = append(out, wrap(inlineANSI(inline), width))
			inline = nil
		}
	}
	for _, c := range nodes {
		if !isBlock(c.Kind) {
			inline = append(inline, c)
			continue
		}
		flush()
		if s := terminalBlock(c, width); s != "" {
			out = append(out, s)
		}
	}
	flush()
	return out
}

func terminalBlock(n *Node, width int) string {
	switch n.Kind {
	case KindHeading:
		return mdHeadingStyle.Render(strings.Repeat("#", n.Level) + " " + inlineANSI(n.Children))
	case KindParagraph:
		return wrap(inlineANSI(n.Children), width)
	case KindList:
		return terminalList(n, width)
	case KindBlockquote:
		inner := strings.Join(terminalBlocks(n.Children, max(width-2, 0)), "\n")
		return prefixLines(inner, mdDimStyle.Render("│ "), mdDimStyle.Render("│ "))
	case KindCodeBlock:
		return terminalCode(n)
	case KindTable:
		return terminalTable(n)
	default:
		return inlineANSI(n.Children)
	}
}

func terminalList(n *Node, width int) string {
	var items []string
	num := max(n.Start, 1)
	for _, item := range n.Children {
		marker := "• "
		if n.Ordered {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		indent := strings.Repeat(" ", lipgloss.Width(marker))
		body := strings.Join(terminalBlocks(item.Children, max(width-len(indent), 0)), "\n")
		items = append(items, prefixLines(body, marker, indent))
	}
	return strings.Join(items, "\n")
}

func terminalCode(n *Node) string {
	if !n.Highlighted() {
		return mdCodeBlockStyle.Render(n.Literal)
	}
	lines := make([]string, len(n.Lines))
	for i, line := range n.Lines {
		var b strings.Builder
		for _, tok := range line.Tokens {
			if tok.Color == "" {
				b.WriteString(tok.Text)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
		}
		lines[i] = "  " + b.String()
	}
	return strings.Join(lines, "\n")
}

func terminalTable(n *Node) string {
	var rows [][]string
	header := -1
	for _, section := range n.Children {
		for _, row := range section.Children {
			cells := make([]string, 0, len(row.Children))
			for _, cell := range row.Children {
				s := inlineANSI(cell.Children)
				if cell.Header {
					s = mdStrongStyle.Render(s)
				}
				cells = append(cells, s)
			}
			if section.Kind == KindTableHead {
				header = len(rows)
			}
			rows = append(rows, cells)
		}
	}

	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	sep := mdDimStyle.Render(" │ ")
	var lines []string
	for r, row := range rows {
		padded := make([]string, len(row))
		for i, cell := range row {
			padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		lines = append(lines, strings.Join(padded, sep))
		if r == header {
			rules := make([]string, len(widths))
			for i, w := range widths {
				rules[i] = strings.Repeat("─", w)
			}
			lines = append(lines, mdDimStyle.Render(strings.Join(rules, "─┼─")))
		}
	}
	return strings.Join(lines, "\n")
}

func inlineANSI(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			b.WriteString(n.Literal)
		case KindLineBreak:
			b.WriteString("\n")
		case KindCodeSpan:
			b.WriteString(mdCodeSpanStyle.Render(n.Literal))
		case KindEmphasis:
			b.WriteString(mdEmphasisStyle.Render(inlineANSI(n.Children)))
		case KindStrong:
			b.WriteString(mdStrongStyle.Render(inlineANSI(n.Children)))
		case KindLink:
			label := inlineANSI(n.Children)
			b.WriteString(mdLinkStyle.Render(label))
			if PlainText(n) != n.Href {
				b.WriteString(mdDimStyle.Render(" (" + n.Href + ")"))
			}
		default:
			b.WriteString(inlineANSI(n.Children))
		}
	}
	return b.String()
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if i == 0 {
			lines[i] = first + l
		} else {
			lines[i] = rest + l
		}
	}
	return strings.Join(lines, "\n")
}
