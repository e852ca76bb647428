// Package markdown renders untrusted narrative text through a fixed whitelist of markdown constructs.
//
// Text is parsed with goldmark and converted into a small Node tree. Only the kinds declared below
// ever appear in the tree. Raw HTML, images, and links with disallowed schemes degrade to literal
// text, which every renderer escapes.
package markdown

import "strings"

// Kind identifies a whitelisted construct.
type Kind int

const (
	KindDocument Kind = iota
	KindHeading
	KindParagraph
	KindList
	KindListItem
	KindBlockquote
	KindTable
	KindTableHead
	KindTableBody
	KindTableRow
	KindTableCell
	KindCodeBlock
	KindText
	KindEmphasis
	KindStrong
	KindLink
	KindCodeSpan
	KindLineBreak
)

var kindNames = [...]string{
	KindDocument:   "document",
	KindHeading:    "heading",
	KindParagraph:  "paragraph",
	KindList:       "list",
	KindListItem:   "list_item",
	KindBlockquote: "blockquote",
	KindTable:      "table",
	KindTableHead:  "table_head",
	KindTableBody:  "table_body",
	KindTableRow:   "table_row",
	KindTableCell:  "table_cell",
	KindCodeBlock:  "code_block",
	KindText:       "text",
	KindEmphasis:   "emphasis",
	KindStrong:     "strong",
	KindLink:       "link",
	KindCodeSpan:   "code_span",
	KindLineBreak:  "line_break",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MaxHeadingLevel is the deepest heading kept; deeper headings become paragraphs.
const MaxHeadingLevel = 4

// Node is one element of a sanitized document.
type Node struct {
	Kind     Kind   `json:"kind"`
	Level    int    `json:"level,omitempty"`    // heading
	Ordered  bool   `json:"ordered,omitempty"`  // list
	Start    int    `json:"start,omitempty"`    // ordered list
	Href     string `json:"href,omitempty"`     // link
	Header   bool   `json:"header,omitempty"`   // table cell
	Align    string `json:"align,omitempty"`    // table cell
	Language string `json:"language,omitempty"` // code block
	Literal  string `json:"literal,omitempty"`  // text, code span, code block

	// Lines holds highlighted code for a code block with a recognized language.
	Lines    []HighlightedLine `json:"lines,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// Highlighted reports whether a code block went through the highlighter.
func (n *Node) Highlighted() bool {
	return n.Kind == KindCodeBlock && len(n.Lines) > 0
}

// Walk visits n and its descendants depth first.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Find returns every node of the given kind.
func Find(n *Node, kind Kind) []*Node {
	var found []*Node
	Walk(n, func(c *Node) {
		if c.Kind == kind {
			found = append(found, c)
		}
	})
	return found
}

// PlainText flattens n to its visible text. Blocks are separated by newlines.
func PlainText(n *Node) string {
	var b strings.Builder
	writePlain(&b, n)
	return strings.TrimSpace(b.String())
}

func writePlain(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindText, KindCodeSpan:
		b.WriteString(n.Literal)
		return
	case KindCodeBlock:
		b.WriteString(n.Literal)
		b.WriteString("\n")
		return
	case KindLineBreak:
		b.WriteString("\n")
		return
	}
	for _, c := range n.Children {
		writePlain(b, c)
		if c.Kind == KindTableCell {
			b.WriteString(" ")
		}
	}
	if isBlock(n.Kind) {
		b.WriteString("\n")
	}
}

func isBlock(k Kind) bool {
	switch k {
	case KindHeading, KindParagraph, KindList, KindListItem, KindBlockquote,
		KindTable, KindTableRow, KindCodeBlock:
		return true
	}
	return false
}
