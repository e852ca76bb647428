package markdown

import "strings"

// CollapseWords is the word count above which a narrative starts collapsed.
const CollapseWords = 100

// Narrative is a sanitized narrative with its word-count gate.
type Narrative struct {
	Doc   *Node `json:"doc"`
	Words int   `json:"words"`
	// Collapsible is set when the narrative is long enough to start truncated.
	Collapsible bool `json:"collapsible"`
}

// NewNarrative sanitizes text with the default theme.
func NewNarrative(text string) Narrative {
	return defaultSanitizer.Narrative(text)
}

// Narrative sanitizes text and counts its rendered words.
func (s *Sanitizer) Narrative(text string) Narrative {
	doc := s.Parse(text)
	words := CountWords(doc)
	return Narrative{
		Doc:         doc,
		Words:       words,
		Collapsible: words > CollapseWords,
	}
}

// Empty reports whether the narrative has no visible text.
func (n Narrative) Empty() bool {
	return n.Words == 0
}

// CountWords counts whitespace-delimited tokens in the rendered text of doc.
func CountWords(doc *Node) int {
	return len(strings.Fields(PlainText(doc)))
}
