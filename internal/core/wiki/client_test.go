package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/markdave123-py/Wikifaq/internal/core"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, "wikifaq-test/1.0")
}

func TestFetchPage(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "wikifaq-test/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		switch r.URL.Query().Get("action") {
		case "parse":
			w.Write([]byte(`{"parse":{"title":"Queueing theory","displaytitle":"<i>Queueing</i> theory","text":"<p>Body.</p><img src=\"//upload.wikimedia.org/q.jpg\">"}}`))
		case "query":
			w.Write([]byte(`{"query":{"pages":[{"revisions":[{"timestamp":"2024-05-01T12:00:00Z"}]}]}}`))
		default:
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
	})

	content, err := client.FetchPage(context.Background(), "Queueing theory")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if content.DisplayName != "Queueing theory" {
		t.Errorf("DisplayName = %q, want markup stripped", content.DisplayName)
	}
	if content.LastUpdated != "2024-05-01T12:00:00Z" {
		t.Errorf("LastUpdated = %q", content.LastUpdated)
	}
	if len(content.MediaURLs) != 1 || content.MediaURLs[0] != "https://upload.wikimedia.org/q.jpg" {
		t.Errorf("MediaURLs = %v", content.MediaURLs)
	}
}

func TestFetchPage_MissingTitle(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"missingtitle","info":"The page you specified doesn't exist."}}`))
	})

	_, err := client.FetchPage(context.Background(), "Nope")
	if !errors.Is(err, core.ErrPageNotFound) {
		t.Fatalf("error = %v, want ErrPageNotFound", err)
	}
}

func TestFetchPage_RevisionFailureIsNotFatal(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "parse":
			w.Write([]byte(`{"parse":{"title":"Page","text":"<p>Body.</p>"}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	content, err := client.FetchPage(context.Background(), "Page")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if content.LastUpdated != "" {
		t.Errorf("LastUpdated = %q, want empty on revision lookup failure", content.LastUpdated)
	}
}

func TestSearchTitle(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "queueing" {
			t.Errorf("search param = %q", got)
		}
		w.Write([]byte(`["queueing",["Queueing theory"],[""],["https://en.wikipedia.org/wiki/Queueing_theory"]]`))
	})

	title, err := client.SearchTitle(context.Background(), "queueing")
	if err != nil {
		t.Fatalf("SearchTitle: %v", err)
	}
	if title != "Queueing theory" {
		t.Fatalf("title = %q", title)
	}
}

func TestSearchTitle_NoMatch(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["zzz",[],[],[]]`))
	})

	title, err := client.SearchTitle(context.Background(), "zzz")
	if err != nil {
		t.Fatalf("SearchTitle: %v", err)
	}
	if title != "" {
		t.Fatalf("title = %q, want empty", title)
	}
}

func TestPageURL(t *testing.T) {
	c := NewClient("https://en.wikipedia.org", "ua")
	if got := c.PageURL("Queueing theory"); got != "https://en.wikipedia.org/wiki/Queueing_theory" {
		t.Fatalf("PageURL = %q", got)
	}
}
