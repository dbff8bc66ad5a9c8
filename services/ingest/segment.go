package ingest

import (
	"regexp"
	"strings"
)

var (
	blankLineRegex     = regexp.MustCompile(`\n[ \t\r]*\n`)
	sentenceStartRegex = regexp.MustCompile(`\.\s+\p{Lu}`)
)

// Segment splits text into trimmed, non-empty paragraphs. Blank lines
// separate paragraphs; text without any blank line is split at sentence
// starts instead (a period, whitespace, then an uppercase letter).
func Segment(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	blocks := nonEmpty(blankLineRegex.Split(text, -1))
	if len(blocks) != 1 {
		return blocks
	}

	return nonEmpty(splitSentences(blocks[0]))
}

func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, match := range sentenceStartRegex.FindAllStringIndex(text, -1) {
		// Cut right after the period
		sentences = append(sentences, text[last:match[0]+1])
		last = match[0] + 1
	}
	return append(sentences, text[last:])
}

func nonEmpty(parts []string) []string {
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
