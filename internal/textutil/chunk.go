package textutil

import (
	"strings"
	"unicode"
)

// sentenceBreaks end a chunk preferentially; clauseBreaks are the fallback.
const (
	sentenceBreaks = "。！？!?.\n"
	clauseBreaks   = "，、；：,;:"
)

// Chunk splits text into pieces of at most maxRunes runes. It prefers to cut
// after sentence punctuation, then clause punctuation, then whitespace, and
// hard-cuts only when a run has no break at all. Empty pieces are dropped.
func Chunk(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxRunes <= 0 {
		return []string{text}
	}
	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= maxRunes {
			chunks = appendChunk(chunks, string(runes))
			break
		}
		cut := lastBreak(runes[:maxRunes+1], sentenceBreaks)
		if cut <= 0 {
			cut = lastBreak(runes[:maxRunes+1], clauseBreaks)
		}
		if cut <= 0 {
			cut = lastSpace(runes[:maxRunes+1])
		}
		if cut <= 0 || cut > maxRunes {
			cut = maxRunes
		}
		chunks = appendChunk(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

// lastBreak returns the index just past the last rune in window that is one of
// breaks, or 0 when none is found.
func lastBreak(window []rune, breaks string) int {
	for i := len(window) - 1; i >= 0; i-- {
		if strings.ContainsRune(breaks, window[i]) {
			return i + 1
		}
	}
	return 0
}

func lastSpace(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return 0
}

func appendChunk(chunks []string, piece string) []string {
	piece = strings.TrimSpace(piece)
	if piece == "" {
		return chunks
	}
	return append(chunks, piece)
}
