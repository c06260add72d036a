package weread

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const readerBaseURL = "https://weread.qq.com/web/reader/"

// EncodeBookID derives the stable, URL-safe identifier the reader embeds in
// deep links from an opaque book ID. The encoding is deterministic and the
// source service resolves it back to the book, so it must stay bit-exact.
func EncodeBookID(bookID string) string {
	sum := md5.Sum([]byte(bookID))
	digest := hex.EncodeToString(sum[:])

	var b strings.Builder
	b.WriteString(digest[:3])

	code, segments := transformBookID(bookID)
	b.WriteString(code)
	b.WriteString("2")
	b.WriteString(digest[len(digest)-2:])

	for i, seg := range segments {
		fmt.Fprintf(&b, "%02x", len(seg))
		b.WriteString(seg)
		if i < len(segments)-1 {
			b.WriteString("g")
		}
	}

	result := b.String()
	if len(result) < 20 {
		result += digest[:20-len(result)]
	}

	check := md5.Sum([]byte(result))
	return result + hex.EncodeToString(check[:])[:3]
}

// transformBookID classifies the ID and renders it as hex segments: digit
// IDs are split into groups of at most nine decimal digits, anything else
// becomes a single segment of per-rune code-point hex.
func transformBookID(bookID string) (string, []string) {
	if isDigits(bookID) {
		var segments []string
		for i := 0; i < len(bookID); i += 9 {
			group := bookID[i:min(i+9, len(bookID))]
			n, _ := strconv.ParseUint(group, 10, 64)
			segments = append(segments, strconv.FormatUint(n, 16))
		}
		return "3", segments
	}

	var b strings.Builder
	for _, r := range bookID {
		b.WriteString(strconv.FormatInt(int64(r), 16))
	}
	return "4", []string{b.String()}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ReaderURL returns the deep link to the book in the source service's web
// reader.
func ReaderURL(bookID string) string {
	return readerBaseURL + EncodeBookID(bookID)
}
