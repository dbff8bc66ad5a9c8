package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var wordRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// queryTerms returns the distinct lowercase words of a query worth marking in
// a fallback excerpt.
func queryTerms(query string) []string {
	var terms []string
	seen := map[string]bool{}

	for _, word := range wordRegex.FindAllString(strings.ToLower(query), -1) {
		// Skip very short words and common stop words
		if utf8.RuneCountInString(word) < 2 || isStopWord(word) || seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
	}

	return terms
}

func isStopWord(word string) bool {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true,
		"but": true, "in": true, "on": true, "at": true, "to": true,
		"for": true, "of": true, "with": true, "by": true, "is": true,
		"are": true, "was": true, "were": true, "be": true, "been": true,
		"have": true, "has": true, "had": true, "do": true, "does": true,
		"did": true, "will": true, "would": true, "could": true, "should": true,
	}
	return stopWords[word]
}
