package ui

import (
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

func TestTruncate_UTF8Safe(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "zero max", input: "hello", maxLen: 0, want: ""},
		{name: "fits", input: "hello", maxLen: 10, want: "hello"},
		{name: "exact", input: "hello", maxLen: 5, want: "hello"},
		{name: "ellipsis", input: "hello world", maxLen: 6, want: "hello…"},
		{name: "wide", input: "こんにちは", maxLen: 5, want: "こん…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Fatalf("truncate(%q, %d) = %q; want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncate output is not valid UTF-8: %q", got)
			}
			if w := runewidth.StringWidth(got); w > tt.maxLen {
				t.Fatalf("truncate output is %d cells wide; max %d", w, tt.maxLen)
			}
		})
	}
}

func TestTruncateLeftKeepsTail(t *testing.T) {
	if got := truncateLeft("abc", 5); got != "abc" {
		t.Errorf("short = %q", got)
	}
	if got := truncateLeft("abcdefgh", 4); got != "…fgh" {
		t.Errorf("long = %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Errorf("padRight must not cut: %q", got)
	}
}

func TestOneLine(t *testing.T) {
	if got := oneLine("  a\n b\t\tc  "); got != "a b c" {
		t.Errorf("oneLine = %q", got)
	}
}
