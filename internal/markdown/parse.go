package markdown

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultTheme is the chroma style used for fenced code.
const DefaultTheme = "dracula"

// allowedSchemes are the only link targets rendered as live links.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// Sanitizer parses narrative text into a whitelisted Node tree.
// It is safe for concurrent use.
type Sanitizer struct {
	md    goldmark.Markdown
	theme string
}

// New returns a Sanitizer highlighting code with the named chroma style.
func New(theme string) *Sanitizer {
	if theme == "" {
		theme = DefaultTheme
	}
	return &Sanitizer{
		md:    goldmark.New(goldmark.WithExtensions(extension.Table)),
		theme: theme,
	}
}

var defaultSanitizer = New(DefaultTheme)

// Default returns the shared sanitizer using DefaultTheme.
func Default() *Sanitizer {
	return defaultSanitizer
}

// Parse sanitizes src with the default theme.
func Parse(src string) *Node {
	return defaultSanitizer.Parse(src)
}

// Parse sanitizes src. It never fails; unsupported constructs become text.
func (s *Sanitizer) Parse(src string) *Node {
	source := []byte(src)
	root := s.md.Parser().Parse(text.NewReader(source))
	c := converter{source: source, theme: s.theme}
	doc := &Node{Kind: KindDocument}
	c.children(doc, root)
	return doc
}

type converter struct {
	source []byte
	theme  string
}

func (c *converter) children(parent *Node, n ast.Node) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		c.convert(parent, child)
	}
}

func (c *converter) convert(parent *Node, n ast.Node) {
	switch n := n.(type) {
	case *ast.Heading:
		if n.Level > MaxHeadingLevel {
			c.block(parent, &Node{Kind: KindParagraph}, n)
			return
		}
		c.block(parent, &Node{Kind: KindHeading, Level: n.Level}, n)
	case *ast.Paragraph:
		c.block(parent, &Node{Kind: KindParagraph}, n)
	case *ast.TextBlock:
		// Tight list items hold their inlines directly.
		c.children(parent, n)
	case *ast.List:
		list := &Node{Kind: KindList, Ordered: n.IsOrdered()}
		if n.IsOrdered() {
			list.Start = n.Start
		}
		c.block(parent, list, n)
	case *ast.ListItem:
		c.block(parent, &Node{Kind: KindListItem}, n)
	case *ast.Blockquote:
		c.block(parent, &Node{Kind: KindBlockquote}, n)
	case *ast.FencedCodeBlock:
		c.codeBlock(parent, string(n.Language(c.source)), n.Lines())
	case *ast.CodeBlock:
		c.codeBlock(parent, "", n.Lines())
	case *ast.HTMLBlock:
		c.htmlBlock(parent, n)
	case *ast.ThematicBreak:
	case *east.Table:
		c.table(parent, n)
	case *ast.Emphasis:
		kind := KindEmphasis
		if n.Level >= 2 {
			kind = KindStrong
		}
		c.block(parent, &Node{Kind: kind}, n)
	case *ast.Link:
		c.link(parent, string(n.Destination), n)
	case *ast.AutoLink:
		label := string(n.Label(c.source))
		href := string(n.URL(c.source))
		if !safeHref(href) {
			appendText(parent, label)
			return
		}
		link := &Node{Kind: KindLink, Href: href}
		appendText(link, label)
		parent.Children = append(parent.Children, link)
	case *ast.CodeSpan:
		parent.Children = append(parent.Children, &Node{Kind: KindCodeSpan, Literal: c.inlineText(n)})
	case *ast.Text:
		appendText(parent, string(n.Segment.Value(c.source)))
		switch {
		case n.HardLineBreak():
			parent.Children = append(parent.Children, &Node{Kind: KindLineBreak})
		case n.SoftLineBreak():
			appendText(parent, " ")
		}
	case *ast.String:
		appendText(parent, string(n.Value))
	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		appendText(parent, b.String())
	default:
		// Images keep their alt text; anything else unknown keeps its content.
		c.children(parent, n)
	}
}

func (c *converter) block(parent, node *Node, n ast.Node) {
	c.children(node, n)
	parent.Children = append(parent.Children, node)
}

func (c *converter) link(parent *Node, href string, n ast.Node) {
	if !safeHref(href) {
		c.children(parent, n)
		return
	}
	c.block(parent, &Node{Kind: KindLink, Href: href}, n)
}

func (c *converter) codeBlock(parent *Node, lang string, lines *text.Segments) {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	code := strings.TrimSuffix(b.String(), "\n")
	node := &Node{Kind: KindCodeBlock, Language: strings.TrimSpace(lang), Literal: code}
	if node.Language != "" {
		node.Lines = HighlightLines(node.Language, c.theme, strings.Split(code, "\n"))
	}
	parent.Children = append(parent.Children, node)
}

// htmlBlock keeps the raw markup as the literal text of a paragraph.
func (c *converter) htmlBlock(parent *Node, n *ast.HTMLBlock) {
	var b strings.Builder
	lines := n.Lines()
	end := 0
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
		end = seg.Stop
	}
	if n.HasClosure() && n.ClosureLine.Start >= end {
		b.Write(n.ClosureLine.Value(c.source))
	}
	raw := strings.TrimSpace(b.String())
	if raw == "" {
		return
	}
	p := &Node{Kind: KindParagraph}
	appendText(p, raw)
	parent.Children = append(parent.Children, p)
}

func (c *converter) table(parent *Node, n *east.Table) {
	table := &Node{Kind: KindTable}
	body := &Node{Kind: KindTableBody}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *east.TableHeader:
			head := &Node{Kind: KindTableHead}
			head.Children = append(head.Children, c.tableRow(row, true))
			table.Children = append(table.Children, head)
		case *east.TableRow:
			body.Children = append(body.Children, c.tableRow(row, false))
		}
	}
	if len(body.Children) > 0 {
		table.Children = append(table.Children, body)
	}
	parent.Children = append(parent.Children, table)
}

func (c *converter) tableRow(n ast.Node, header bool) *Node {
	row := &Node{Kind: KindTableRow}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		cell := &Node{Kind: KindTableCell, Header: header}
		if tc, ok := child.(*east.TableCell); ok && tc.Alignment != east.AlignNone {
			cell.Align = tc.Alignment.String()
		}
		c.children(cell, child)
		row.Children = append(row.Children, cell)
	}
	return row
}

// inlineText collects the raw text under an inline node.
func (c *converter) inlineText(n ast.Node) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(c.source))
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(c.inlineText(child))
		}
	}
	return b.String()
}

// appendText adds s to parent, merging with a trailing text node.
func appendText(parent *Node, s string) {
	if s == "" {
		return
	}
	if k := len(parent.Children); k > 0 && parent.Children[k-1].Kind == KindText {
		parent.Children[k-1].Literal += s
		return
	}
	parent.Children = append(parent.Children, &Node{Kind: KindText, Literal: s})
}

func safeHref(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	return allowedSchemes[strings.ToLower(u.Scheme)]
}
