package database

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"short_unchanged", "Intro to Caching", "Intro to Caching"},
		{"exactly_300", strings.Repeat("a", 300), strings.Repeat("a", 300)},
		{"ascii_over_300", strings.Repeat("a", 301), strings.Repeat("a", 300)},
		// 400 three-byte runes: 1200 bytes, must cut at 300 characters
		// without splitting a rune.
		{"multibyte_over_300", strings.Repeat("日", 400), strings.Repeat("日", 300)},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateTitle(tt.title, 300)
			if got != tt.want {
				t.Errorf("truncateTitle = %q (%d runes), want %d runes",
					got, utf8.RuneCountInString(got), utf8.RuneCountInString(tt.want))
			}
			if !utf8.ValidString(got) {
				t.Error("truncated title is not valid UTF-8")
			}
		})
	}
}

func TestTruncateTitleMultibyteUnder300Runes(t *testing.T) {
	// 150 CJK characters is 450 bytes but only 150 characters; it fits the
	// column and must pass through untouched.
	title := strings.Repeat("日", 150)
	if got := truncateTitle(title, 300); got != title {
		t.Errorf("truncateTitle shortened a title of %d runes", utf8.RuneCountInString(title))
	}
}
