package markdown

import (
	"fmt"
	"html"
	"strings"
)

// HTML renders a sanitized tree. All text is escaped; only whitelisted tags are emitted.
func HTML(n *Node) string {
	var b strings.Builder
	writeHTML(&b, n)
	return b.String()
}

var simpleTags = map[Kind]string{
	KindParagraph:  "p",
	KindListItem:   "li",
	KindBlockquote: "blockquote",
	KindTable:      "table",
	KindTableHead:  "thead",
	KindTableBody:  "tbody",
	KindTableRow:   "tr",
	KindEmphasis:   "em",
	KindStrong:     "strong",
}

func writeHTML(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindDocument:
		writeHTMLChildren(b, n)
	case KindText:
		b.WriteString(html.EscapeString(n.Literal))
	case KindLineBreak:
		b.WriteString("<br>")
	case KindCodeSpan:
		fmt.Fprintf(b, "<code>%s</code>", html.EscapeString(n.Literal))
	case KindHeading:
		fmt.Fprintf(b, "<h%d>", n.Level)
		writeHTMLChildren(b, n)
		fmt.Fprintf(b, "</h%d>\n", n.Level)
	case KindList:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		b.WriteString("<" + tag)
		if n.Ordered && n.Start > 1 {
			fmt.Fprintf(b, ` start="%d"`, n.Start)
		}
		b.WriteString(">\n")
		writeHTMLChildren(b, n)
		b.WriteString("</" + tag + ">\n")
	case KindLink:
		fmt.Fprintf(b, `<a href="%s" rel="noopener noreferrer" target="_blank">`, html.EscapeString(n.Href))
		writeHTMLChildren(b, n)
		b.WriteString("</a>")
	case KindTableCell:
		tag := "td"
		if n.Header {
			tag = "th"
		}
		b.WriteString("<" + tag)
		if n.Align != "" {
			fmt.Fprintf(b, ` style="text-align:%s"`, html.EscapeString(n.Align))
		}
		b.WriteString(">")
		writeHTMLChildren(b, n)
		b.WriteString("</" + tag + ">")
	case KindCodeBlock:
		writeHTMLCode(b, n)
	default:
		tag, ok := simpleTags[n.Kind]
		if !ok {
			writeHTMLChildren(b, n)
			return
		}
		b.WriteString("<" + tag + ">")
		writeHTMLChildren(b, n)
		b.WriteString("</" + tag + ">")
		if isBlock(n.Kind) {
			b.WriteString("\n")
		}
	}
}

func writeHTMLChildren(b *strings.Builder, n *Node) {
	for _, c := range n.Children {
		writeHTML(b, c)
	}
}

func writeHTMLCode(b *strings.Builder, n *Node) {
	b.WriteString(`<pre class="md-code"><code`)
	if n.Language != "" {
		fmt.Fprintf(b, ` class="language-%s"`, html.EscapeString(n.Language))
	}
	b.WriteString(">")
	if !n.Highlighted() {
		b.WriteString(html.EscapeString(n.Literal))
		b.WriteString("</code></pre>\n")
		return
	}
	for i, line := range n.Lines {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, tok := range line.Tokens {
			if tok.Color == "" {
				b.WriteString(html.EscapeString(tok.Text))
				continue
			}
			fmt.Fprintf(b, `<span style="color:%s">%s</span>`, html.EscapeString(tok.Color), html.EscapeString(tok.Text))
		}
	}
	b.WriteString("</code></pre>\n")
}
