package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/markdave123-py/Wikifaq/internal/models"
)

func TestNormalizeReference(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Queue theory", "Queue theory", true},
		{"  Queue theory  ", "Queue theory", true},
		{"/wiki/Queue_theory", "Queue theory", true},
		{"wiki/Queue_theory", "Queue theory", true},
		{"./Queue_theory", "Queue theory", true},
		{"", "", false},
		{"   ", "", false},
		{"#History", "", false},
		{"Queue theory#History", "", false},
		{"Queueing (Redirected from Queue theory)", "", false},
		{"/wiki/", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeReference(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("NormalizeReference(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestResolveAndEnqueue_IdempotentBySlug(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, &fakeSource{}, nil)
	r.UseSearch = false

	refs := []string{"Queue theory", "/wiki/Queue_theory", "queue THEORY"}
	if n := r.ResolveAndEnqueue(context.Background(), refs); n != 1 {
		t.Fatalf("enqueued %d entries for same-slug references, want 1", n)
	}
	// A later page citing the same reference is a no-op.
	if n := r.ResolveAndEnqueue(context.Background(), []string{"Queue theory"}); n != 0 {
		t.Fatalf("re-enqueue of known slug returned %d, want 0", n)
	}

	e, _ := store.GetQueueEntryBySlug(context.Background(), "queue-theory")
	if e == nil {
		t.Fatal("expected queue entry for queue-theory")
	}
	if e.Origin != models.OriginCrossLink {
		t.Errorf("origin = %q, want %q", e.Origin, models.OriginCrossLink)
	}
}

func TestResolveAndEnqueue_SearchResolution(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{
		searchFn: func(_ context.Context, query string) (string, error) {
			if query == "queueing theory" {
				return "Queueing theory", nil
			}
			return "", errors.New("search unavailable")
		},
	}
	r := NewResolver(store, source, nil)

	// Resolved title wins over the literal reference.
	if n := r.ResolveAndEnqueue(context.Background(), []string{"queueing theory"}); n != 1 {
		t.Fatal("expected one enqueue")
	}
	if e, _ := store.GetQueueEntryBySlug(context.Background(), "queueing-theory"); e == nil || e.Title != "Queueing theory" {
		t.Fatalf("entry = %+v, want search-resolved title", e)
	}

	// Search failure falls back to the literal reference.
	if n := r.ResolveAndEnqueue(context.Background(), []string{"Little's law"}); n != 1 {
		t.Fatal("expected fallback enqueue")
	}
	if e, _ := store.GetQueueEntryBySlug(context.Background(), "littles-law"); e == nil || e.Title != "Little's law" {
		t.Fatalf("entry = %+v, want literal-title fallback", e)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Queue theory", "queue-theory"},
		{"Go (programming language)", "go-programming-language"},
		{"Foo_Bar/Baz", "foo-bar-baz"},
		{"  Multiple   spaces  ", "multiple-spaces"},
		{"---", ""},
		{"C++", "c"},
		{"Déjà vu", "déjà-vu"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
