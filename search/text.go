package search

import "strings"

// Stop words to filter out of queries and documents
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// snippetBefore and snippetAfter bound a snippet in words around the first hit.
const (
	snippetBefore = 8
	snippetAfter  = 16
)

// cleanWord lowercases a word and trims surrounding punctuation.
func cleanWord(word string) string {
	return strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}$#*"))
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := cleanWord(word)

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// uniqueWords returns words without duplicates, keeping first occurrences.
func uniqueWords(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0:0]
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// countHits counts occurrences of each query word in document.
func countHits(document string, queryWords []string) map[string]int {
	wanted := make(map[string]bool, len(queryWords))
	for _, w := range queryWords {
		wanted[w] = true
	}
	hits := make(map[string]int, len(queryWords))
	for _, w := range tokenizeAndFilter(document) {
		if wanted[w] {
			hits[w]++
		}
	}
	return hits
}

// snippet returns the words of document around the first query word hit,
// or "" when none occurs.
func snippet(document string, queryWords []string) string {
	wanted := make(map[string]bool, len(queryWords))
	for _, w := range queryWords {
		wanted[w] = true
	}

	words := strings.Fields(document)
	for i, word := range words {
		if !wanted[cleanWord(word)] {
			continue
		}
		start := max(i-snippetBefore, 0)
		end := min(i+snippetAfter, len(words))
		s := strings.Join(words[start:end], " ")
		if start > 0 {
			s = "..." + s
		}
		if end < len(words) {
			s += "..."
		}
		return s
	}
	return ""
}
