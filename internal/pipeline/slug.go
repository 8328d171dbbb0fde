package pipeline

import (
	"strings"
	"unicode"
)

// Slugify derives the canonical URL-safe identifier for a page title. The
// slug is the join key between queue rows, faq_files and vector metadata, so
// it must be stable for a given title.
func Slugify(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '_' || r == '-' || r == '/':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
