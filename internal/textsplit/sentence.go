// Package textsplit turns extracted document text into embedding-sized chunks:
// normalize, segment into sentences, then merge into length-bounded passages.
package textsplit

import (
	"strings"
	"unicode"
)

// Normalize collapses all whitespace runs (including newlines) into single
// spaces and trims the ends.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// SplitSentences splits normalized text immediately after any of `. ? !`
// followed by whitespace. The rule is purely positional, so the same input
// always yields the same sentences. Empty input yields no sentences.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if start < len(runes) {
		if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}
