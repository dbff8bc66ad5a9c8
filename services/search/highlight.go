package search

import (
	"html"
	"html/template"
	"regexp"
	"strings"
)

const (
	fallbackExcerptLength = 200
	contentFragmentJoin   = "... "
)

// sanitizeFragment makes an engine fragment safe to render: everything is
// escaped except the marker tags the engine was asked to insert.
func sanitizeFragment(fragment string) template.HTML {
	escaped := html.EscapeString(html.UnescapeString(fragment))
	escaped = strings.ReplaceAll(escaped, html.EscapeString(markPre), markPre)
	escaped = strings.ReplaceAll(escaped, html.EscapeString(markPost), markPost)
	return template.HTML(escaped)
}

func joinFragments(fragments []string, separator string) template.HTML {
	parts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		parts = append(parts, string(sanitizeFragment(fragment)))
	}
	return template.HTML(strings.Join(parts, separator))
}

// fallbackHighlight truncates text and marks every case-insensitive
// occurrence of terms.
func fallbackHighlight(text string, terms []string) template.HTML {
	runes := []rune(text)
	if len(runes) > fallbackExcerptLength {
		text = string(runes[:fallbackExcerptLength]) + "..."
	}

	if len(terms) == 0 {
		return template.HTML(html.EscapeString(text))
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, regexp.QuoteMeta(term))
	}
	termRegex := regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)

	var builder strings.Builder
	last := 0
	for _, match := range termRegex.FindAllStringIndex(text, -1) {
		builder.WriteString(html.EscapeString(text[last:match[0]]))
		builder.WriteString(markPre)
		builder.WriteString(html.EscapeString(text[match[0]:match[1]]))
		builder.WriteString(markPost)
		last = match[1]
	}
	builder.WriteString(html.EscapeString(text[last:]))

	return template.HTML(builder.String())
}
