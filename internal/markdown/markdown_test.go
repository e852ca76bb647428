package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptIsEscaped(t *testing.T) {
	doc := Parse("# Title\n\n<script>alert(1)</script>\n\nSome *text*")

	require.Len(t, doc.Children, 3)

	headings := Find(doc, KindHeading)
	require.Len(t, headings, 1)
	assert.Equal(t, 1, headings[0].Level)
	assert.Equal(t, "Title", PlainText(headings[0]))

	em := Find(doc, KindEmphasis)
	require.Len(t, em, 1)
	assert.Equal(t, "text", PlainText(em[0]))

	script := doc.Children[1]
	assert.Equal(t, KindParagraph, script.Kind)
	assert.Equal(t, "<script>alert(1)</script>", PlainText(script))

	out := HTML(doc)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<em>text</em>")
}

func TestInlineHTMLBecomesText(t *testing.T) {
	doc := Parse(`hello <b onclick="x()">bold</b> world`)
	require.Len(t, doc.Children, 1)

	p := doc.Children[0]
	require.Len(t, p.Children, 1)
	assert.Equal(t, KindText, p.Children[0].Kind)
	assert.Equal(t, `hello <b onclick="x()">bold</b> world`, p.Children[0].Literal)
	assert.NotContains(t, HTML(doc), "<b")
}

func TestLinks(t *testing.T) {
	doc := Parse("[docs](https://example.com/a?b=1&c=2) and [click](javascript:alert(1))")

	links := Find(doc, KindLink)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/a?b=1&c=2", links[0].Href)
	assert.Equal(t, "docs and click", PlainText(doc))

	out := HTML(doc)
	assert.Contains(t, out, `href="https://example.com/a?b=1&amp;c=2"`)
	assert.NotContains(t, out, "javascript")

	auto := Find(Parse("see <https://example.com>"), KindLink)
	require.Len(t, auto, 1)
	assert.Equal(t, "https://example.com", auto[0].Href)
}

func TestImagesKeepAltText(t *testing.T) {
	doc := Parse("![alt text](https://example.com/x.png)")
	assert.Empty(t, Find(doc, KindLink))
	assert.Equal(t, "alt text", PlainText(doc))
	assert.NotContains(t, HTML(doc), "<img")
}

func TestDeepHeadingsDegrade(t *testing.T) {
	doc := Parse("#### four\n\n##### five")
	require.Len(t, doc.Children, 2)
	assert.Equal(t, KindHeading, doc.Children[0].Kind)
	assert.Equal(t, 4, doc.Children[0].Level)
	assert.Equal(t, KindParagraph, doc.Children[1].Kind)
	assert.Equal(t, "five", PlainText(doc.Children[1]))
}

func TestLists(t *testing.T) {
	doc := Parse("3. three\n4. **four**")
	require.Len(t, doc.Children, 1)
	list := doc.Children[0]
	assert.Equal(t, KindList, list.Kind)
	assert.True(t, list.Ordered)
	assert.Equal(t, 3, list.Start)
	require.Len(t, list.Children, 2)
	assert.Equal(t, KindListItem, list.Children[0].Kind)
	assert.Len(t, Find(list, KindStrong), 1)
	assert.Contains(t, HTML(doc), `<ol start="3">`)

	bullets := Parse("- a\n- b")
	require.Len(t, bullets.Children, 1)
	assert.False(t, bullets.Children[0].Ordered)
	assert.Contains(t, Terminal(bullets, 0), "• a")
}

func TestBlockquote(t *testing.T) {
	doc := Parse("> careful")
	require.Len(t, doc.Children, 1)
	assert.Equal(t, KindBlockquote, doc.Children[0].Kind)
	assert.Contains(t, HTML(doc), "<blockquote><p>careful</p>")
}

func TestTable(t *testing.T) {
	doc := Parse("| name | score |\n|------|:-----:|\n| f | 3 |\n| g | 12 |")

	tables := Find(doc, KindTable)
	require.Len(t, tables, 1)
	table := tables[0]
	require.Len(t, table.Children, 2)
	assert.Equal(t, KindTableHead, table.Children[0].Kind)
	assert.Equal(t, KindTableBody, table.Children[1].Kind)
	assert.Len(t, table.Children[1].Children, 2)

	cells := Find(table.Children[0], KindTableCell)
	require.Len(t, cells, 2)
	assert.True(t, cells[0].Header)
	assert.Equal(t, "center", cells[1].Align)

	out := HTML(doc)
	assert.Contains(t, out, "<th>name</th>")
	assert.Contains(t, out, "<td>g</td>")
	assert.Contains(t, out, `<td style="text-align:center">12</td>`)
}

func TestFencedCodeHighlighting(t *testing.T) {
	doc := Parse("```go\nfunc main() {}\n```")
	blocks := Find(doc, KindCodeBlock)
	require.Len(t, blocks, 1)

	code := blocks[0]
	assert.Equal(t, "go", code.Language)
	assert.Equal(t, "func main() {}", code.Literal)
	require.True(t, code.Highlighted())
	require.Len(t, code.Lines, 1)
	assert.Equal(t, "func main() {}", code.Lines[0].Plain())

	plain := Find(Parse("```nosuchlang123\n<x>\n```"), KindCodeBlock)
	require.Len(t, plain, 1)
	assert.False(t, plain[0].Highlighted())
	assert.Contains(t, HTML(&Node{Kind: KindDocument, Children: plain}), "&lt;x&gt;")
}

func TestInlineCode(t *testing.T) {
	doc := Parse("run `rm -rf <dir>` now")
	spans := Find(doc, KindCodeSpan)
	require.Len(t, spans, 1)
	assert.Equal(t, "rm -rf <dir>", spans[0].Literal)
	assert.Contains(t, HTML(doc), "<code>rm -rf &lt;dir&gt;</code>")
}

func TestNarrativeWordGate(t *testing.T) {
	short := NewNarrative(strings.TrimSpace(strings.Repeat("word ", CollapseWords)))
	assert.Equal(t, CollapseWords, short.Words)
	assert.False(t, short.Collapsible)

	long := NewNarrative(strings.Repeat("word ", CollapseWords+1))
	assert.Equal(t, CollapseWords+1, long.Words)
	assert.True(t, long.Collapsible)

	// Markup does not count as words.
	marked := NewNarrative("# Heading\n\n**bold** *it*")
	assert.Equal(t, 3, marked.Words)

	assert.True(t, NewNarrative("").Empty())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "code_block", KindCodeBlock.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
