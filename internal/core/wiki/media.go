package wiki

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractMediaURLs pulls image sources out of rendered page HTML and
// normalizes each to an absolute https URL, preserving document order and
// dropping duplicates.
func ExtractMediaURLs(rawHTML, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		abs := NormalizeMediaURL(src, baseURL)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	})
	return out
}

// NormalizeMediaURL converts scheme-relative and site-relative image sources
// to absolute URLs. Returns "" for sources that cannot be resolved (inline
// data URIs, empty src).
func NormalizeMediaURL(src, baseURL string) string {
	src = strings.TrimSpace(src)
	switch {
	case src == "" || strings.HasPrefix(src, "data:"):
		return ""
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	case strings.HasPrefix(src, "/"):
		return strings.TrimRight(baseURL, "/") + src
	default:
		return strings.TrimRight(baseURL, "/") + "/" + src
	}
}

// stripTags flattens markup in an API display title down to its text.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
