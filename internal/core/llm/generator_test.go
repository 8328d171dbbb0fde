package llm

import (
	"reflect"
	"strings"
	"testing"

	"github.com/markdave123-py/Wikifaq/internal/models"
)

func TestValidFaqs(t *testing.T) {
	in := []models.GeneratedFaq{
		{Question: "Q1?", Answer: "A1."},
		{Question: "", Answer: "orphan answer"},
		{Question: "orphan question", Answer: "   "},
		{Question: "Q2?", Answer: "A2."},
	}
	got := validFaqs(in)
	if len(got) != 2 || got[0].Question != "Q1?" || got[1].Question != "Q2?" {
		t.Fatalf("validFaqs = %+v, want the two complete items", got)
	}
}

func TestUsedMediaURLs(t *testing.T) {
	faqs := []models.GeneratedFaq{
		{MediaLinks: []string{"https://u/a.jpg", ""}},
		{MediaLinks: []string{"https://u/b.jpg", "https://u/a.jpg"}},
		{},
	}
	got := UsedMediaURLs(faqs)
	want := []string{"https://u/a.jpg", "https://u/b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UsedMediaURLs = %v, want %v", got, want)
	}
}

func TestSecondPassPromptListsExistingState(t *testing.T) {
	g := &GeminiGenerator{}
	existing := []models.GeneratedFaq{
		{Question: "What is a queue?", Subheader: "Basics", MediaLinks: []string{"https://u/a.jpg"}},
		{Question: "Who invented it?"},
	}
	prompt := g.secondPassPrompt("Queueing theory", "content here", existing)

	for _, want := range []string{
		"- [Basics] What is a queue?",
		"- Who invented it?",
		"Already used image URLs:",
		"- https://u/a.jpg",
		"content here",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("second-pass prompt missing %q", want)
		}
	}
}

func TestFirstPassPromptListsPageState(t *testing.T) {
	g := &GeminiGenerator{}
	media := []string{"https://u/a.jpg", "https://u/b.jpg"}
	prompt := g.firstPassPrompt("Queueing theory", "content here", "2024-05-01T12:00:00Z", media)

	for _, want := range []string{
		"Last updated: 2024-05-01T12:00:00Z",
		"Candidate image URLs:",
		"- https://u/a.jpg",
		"- https://u/b.jpg",
		"content here",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("first-pass prompt missing %q", want)
		}
	}

	// No extracted images, no candidate section.
	bare := g.firstPassPrompt("Queueing theory", "content here", "", nil)
	if strings.Contains(bare, "Candidate image URLs:") {
		t.Error("first-pass prompt lists candidates for a page without images")
	}
}
