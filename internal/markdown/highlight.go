package markdown

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightedLine is one line of highlighted code.
type HighlightedLine struct {
	Tokens []Token `json:"tokens"`
}

// Token is a highlighted chunk of text.
type Token struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"` // hex, empty for default
}

// Plain returns the concatenated text of all tokens.
func (hl HighlightedLine) Plain() string {
	var b strings.Builder
	for _, t := range hl.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// HighlightLines tokenises lines written in language using the named chroma style.
// It returns nil when the language tag is not recognized, so the caller shows plain code.
func HighlightLines(language, theme string, lines []string) []HighlightedLine {
	lexer := lexerFor(language)
	if lexer == nil {
		return nil
	}

	iterator, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return nil
	}

	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}

	result := make([]HighlightedLine, 0, len(lines))
	current := HighlightedLine{}
	for _, token := range iterator.Tokens() {
		// Tokens may span lines.
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				result = append(result, current)
				current = HighlightedLine{}
			}
			if part != "" {
				current.Tokens = append(current.Tokens, Token{
					Text:  part,
					Color: tokenColor(style, token.Type),
				})
			}
		}
	}
	result = append(result, current)

	// Lexers may add a trailing newline token.
	if len(result) > len(lines) {
		result = result[:len(lines)]
	}
	for len(result) < len(lines) {
		result = append(result, HighlightedLine{})
	}
	return result
}

func lexerFor(language string) chroma.Lexer {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return nil
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Match("file." + language)
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
