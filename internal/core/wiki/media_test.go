package wiki

import (
	"reflect"
	"testing"
)

func TestNormalizeMediaURL(t *testing.T) {
	const base = "https://en.wikipedia.org"
	cases := []struct {
		src  string
		want string
	}{
		{"//upload.wikimedia.org/a.jpg", "https://upload.wikimedia.org/a.jpg"},
		{"https://upload.wikimedia.org/a.jpg", "https://upload.wikimedia.org/a.jpg"},
		{"http://upload.wikimedia.org/a.jpg", "http://upload.wikimedia.org/a.jpg"},
		{"/static/images/a.png", "https://en.wikipedia.org/static/images/a.png"},
		{"images/a.png", "https://en.wikipedia.org/images/a.png"},
		{"data:image/png;base64,iVBOR", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeMediaURL(tc.src, base); got != tc.want {
			t.Errorf("NormalizeMediaURL(%q) = %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestExtractMediaURLs_OrderAndDedup(t *testing.T) {
	html := `<div>
		<img src="//upload.wikimedia.org/a.jpg">
		<img src="/static/b.png">
		<img src="//upload.wikimedia.org/a.jpg">
		<img src="data:image/gif;base64,R0lGOD">
		<img alt="no source">
	</div>`

	got := ExtractMediaURLs(html, "https://en.wikipedia.org")
	want := []string{
		"https://upload.wikimedia.org/a.jpg",
		"https://en.wikipedia.org/static/b.png",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractMediaURLs = %v, want %v", got, want)
	}
}

func TestExtractMediaURLs_NoImages(t *testing.T) {
	if got := ExtractMediaURLs("<p>plain text</p>", "https://en.wikipedia.org"); len(got) != 0 {
		t.Fatalf("ExtractMediaURLs = %v, want empty", got)
	}
}

func TestStripTags(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plain Title", "Plain Title"},
		{"<i>Styled</i> Title", "Styled Title"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		if got := stripTags(tc.in); got != tc.want {
			t.Errorf("stripTags(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
