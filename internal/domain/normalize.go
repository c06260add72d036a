package domain

import (
	"regexp"
	"strings"
)

// TitleMaxLength is the destination's title length limit; normalized text is
// truncated to this many characters.
const TitleMaxLength = 300

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeTitle canonicalizes annotation text into the form used both as
// the entity title and as its natural key. Line breaks become spaces,
// surrounding whitespace is trimmed, internal whitespace runs collapse to a
// single space and the result is cut to TitleMaxLength characters. The
// normalization is idempotent; an all-whitespace input yields "".
func NormalizeTitle(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	normalized := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	normalized = strings.TrimSpace(normalized)
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")

	if runes := []rune(normalized); len(runes) > TitleMaxLength {
		normalized = string(runes[:TitleMaxLength])
	}

	return normalized
}
