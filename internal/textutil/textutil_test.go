package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"Intro":       "intro",
		"image 1":     "image_1",
		"青铜浴巾":        "青铜浴巾",
		"  ":          "unknown",
		"///":         "unknown",
		"king-size_2": "king-size_2",
	}
	for input, want := range tests {
		if got := SanitizeToken(input); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestChunkShortTextIsSingle(t *testing.T) {
	got := Chunk("  王一博周边定制排行 ", 100)
	if len(got) != 1 || got[0] != "王一博周边定制排行" {
		t.Fatalf("unexpected chunks: %q", got)
	}
	if Chunk("   ", 100) != nil {
		t.Fatal("blank text should produce no chunks")
	}
}

func TestChunkPrefersSentenceBoundaries(t *testing.T) {
	text := strings.Repeat("好", 60) + "。" + strings.Repeat("棒", 60)
	got := Chunk(text, 100)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if !strings.HasSuffix(got[0], "。") {
		t.Fatalf("first chunk should end at the sentence break: %q", got[0])
	}
}

func TestChunkHardCutsAndPreservesText(t *testing.T) {
	text := strings.Repeat("字", 250)
	got := Chunk(text, 100)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for _, c := range got {
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Fatalf("chunk exceeds limit: %d runes", n)
		}
	}
	if strings.Join(got, "") != text {
		t.Fatal("chunks must reassemble to the original text")
	}
}

func TestChunkSplitsOnWhitespace(t *testing.T) {
	words := strings.Repeat("word ", 30)
	got := Chunk(words, 40)
	for _, c := range got {
		if strings.HasPrefix(c, "ord") {
			t.Fatalf("chunk split inside a word: %q", got)
		}
		if utf8.RuneCountInString(c) > 40 {
			t.Fatalf("chunk too long: %q", c)
		}
	}
}
