package textsplit

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMinLength = 500
	DefaultMaxLength = 800
	DefaultOverlap   = 50
)

// Assemble merges ordered sentences into chunks of roughly
// [minLength, maxLength] characters. A buffer flushes once it has reached
// minLength before the next sentence arrives; that sentence starts the next
// buffer. A trailing buffer shorter than minLength folds into the last
// paragraph instead of standing alone. Paragraphs that end up longer than
// maxLength are re-split with a sliding window of size minLength.
func Assemble(sentences []string, minLength, maxLength, overlap int) []string {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if maxLength < minLength {
		maxLength = minLength
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}

	var paragraphs []string
	current := ""
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if utf8.RuneCountInString(current) < minLength {
			if current != "" {
				current += " " + sentence
			} else {
				current = sentence
			}
		} else {
			paragraphs = append(paragraphs, current)
			current = sentence
		}
	}
	if current != "" {
		if utf8.RuneCountInString(current) < minLength && len(paragraphs) > 0 {
			paragraphs[len(paragraphs)-1] += " " + current
		} else {
			paragraphs = append(paragraphs, current)
		}
	}

	var chunks []string
	for _, paragraph := range paragraphs {
		if utf8.RuneCountInString(paragraph) > maxLength {
			chunks = append(chunks, slidingWindow(paragraph, minLength, overlap)...)
		} else {
			chunks = append(chunks, paragraph)
		}
	}
	return chunks
}

// slidingWindow cuts text into windows of size characters advancing by
// size-overlap, so consecutive windows share overlap characters.
func slidingWindow(text string, size, overlap int) []string {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	if overlap >= size {
		overlap = size / 2
	}
	step := size - overlap

	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return windows
}
