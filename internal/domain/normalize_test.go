package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\r\n ", ""},
		{"plain", "hello world", "hello world"},
		{"mixed breaks and runs", "a\r\n\nb   c\t\td", "a b c d"},
		{"surrounding whitespace", "  trimmed  ", "trimmed"},
		{"crlf", "line1\r\nline2", "line1 line2"},
		{"cr only", "line1\rline2", "line1 line2"},
		{"cjk preserved", "读书  笔记", "读书 笔记"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"a\r\n\nb   c\t\td",
		"  plain  ",
		strings.Repeat("x ", 400),
		"中文\n换行",
	}

	for _, in := range inputs {
		once := NormalizeTitle(in)
		assert.Equal(t, once, NormalizeTitle(once))
	}
}

func TestNormalizeTitle_Truncation(t *testing.T) {
	in := strings.Repeat("a", 301)
	got := NormalizeTitle(in)
	assert.Equal(t, strings.Repeat("a", 300), got)

	// Truncation counts characters, not bytes.
	cjk := strings.Repeat("书", 301)
	assert.Equal(t, strings.Repeat("书", 300), NormalizeTitle(cjk))
}

func TestNormalizeTitle_TruncatesAfterCollapsing(t *testing.T) {
	// The 300-character window applies to the collapsed string, so runs of
	// whitespace inside the first 300 raw characters do not eat the budget.
	in := "a  " + strings.Repeat("b", 400)
	got := NormalizeTitle(in)
	assert.Equal(t, 300, len([]rune(got)))
	assert.Equal(t, "a "+strings.Repeat("b", 298), got)
}
