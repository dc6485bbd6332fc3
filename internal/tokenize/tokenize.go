// Package tokenize holds the word tokenizer shared by the TF-IDF
// embedder and the AI-content analyzer.
package tokenize

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Words returns the lowercased word tokens of text. Apostrophes join
// their surrounding letters; digits and punctuation are skipped.
func Words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}
