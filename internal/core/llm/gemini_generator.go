package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/metrics"
	"github.com/markdave123-py/Wikifaq/internal/models"
	"github.com/markdave123-py/Wikifaq/internal/ratelimit"
	"github.com/markdave123-py/Wikifaq/internal/resilience"
)

// attemptTimeout bounds a single LLM call; the retry budget alone cannot
// bound a hung request.
const attemptTimeout = 120 * time.Second

type GeminiGenerator struct {
	client        *genai.Client
	modelName     string
	limiter       *ratelimit.Limiter
	contentBudget int
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, limiter *ratelimit.Limiter) (*GeminiGenerator, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiGenerator{
		client:        cl,
		modelName:     modelName,
		limiter:       limiter,
		contentBudget: DefaultContentBudget,
		logger:        slog.Default().With("component", "generator"),
	}, nil
}

// WithMetrics enables per-attempt call accounting.
func (g *GeminiGenerator) WithMetrics(m *metrics.Metrics) *GeminiGenerator {
	g.metrics = m
	return g
}

func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

type firstPassArgs struct {
	HumanReadableName string                `json:"human_readable_name"`
	LastUpdated       string                `json:"last_updated"`
	Faqs              []models.GeneratedFaq `json:"faqs"`
}

type secondPassArgs struct {
	AdditionalFaqs []models.GeneratedFaq `json:"additional_faqs"`
}

// GenerateFirstPass produces the full FAQ set for a page. On retry
// exhaustion it returns core.ErrGenerationFailed: callers must be able to
// tell "generation failed" from "the page yielded no FAQs".
func (g *GeminiGenerator) GenerateFirstPass(ctx context.Context, title, content, lastUpdated string, mediaURLs []string) (*models.GenerationResult, error) {
	prompt := g.firstPassPrompt(title, TruncateContent(content, g.contentBudget), lastUpdated, mediaURLs)

	var args firstPassArgs
	err := resilience.Retry(ctx, "faq_first_pass", resilience.RetryConfig{}, func() error {
		callErr := g.callTool(ctx, firstPassTool(), firstPassFunction, prompt, &args)
		g.countAttempt("first", callErr)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrGenerationFailed, err)
	}

	result := &models.GenerationResult{
		Faqs:        validFaqs(args.Faqs),
		DisplayName: args.HumanReadableName,
		LastUpdated: args.LastUpdated,
	}
	if result.LastUpdated == "" {
		result.LastUpdated = lastUpdated
	}
	return result, nil
}

// GenerateSecondPass asks for FAQs the first pass missed, conditioned on the
// existing questions and already-used media so neither is repeated. Retry
// exhaustion degrades to an empty list: a page with no additional content is
// not a pipeline failure.
func (g *GeminiGenerator) GenerateSecondPass(ctx context.Context, title, content string, existing []models.GeneratedFaq) ([]models.GeneratedFaq, error) {
	prompt := g.secondPassPrompt(title, TruncateContent(content, g.contentBudget), existing)

	var args secondPassArgs
	err := resilience.Retry(ctx, "faq_second_pass", resilience.RetryConfig{}, func() error {
		callErr := g.callTool(ctx, secondPassTool(), secondPassFunction, prompt, &args)
		g.countAttempt("second", callErr)
		return callErr
	})
	if err != nil {
		g.logger.Warn("second pass exhausted retries, continuing without additional faqs",
			"title", title, "error", err)
		return nil, nil
	}
	return validFaqs(args.AdditionalFaqs), nil
}

// callTool performs one function-calling request and decodes the forced tool
// call's arguments into out. A response without the expected tool call counts
// as an attempt failure.
func (g *GeminiGenerator) callTool(ctx context.Context, tool *genai.Tool, fnName, prompt string, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	m := g.client.GenerativeModel(g.modelName)
	m.Tools = []*genai.Tool{tool}
	m.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{fnName},
		},
	}

	resp, err := m.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return fmt.Errorf("empty candidate from model")
	}

	for _, p := range resp.Candidates[0].Content.Parts {
		fc, ok := p.(genai.FunctionCall)
		if !ok || fc.Name != fnName {
			continue
		}
		raw, err := json.Marshal(fc.Args)
		if err != nil {
			return fmt.Errorf("marshal tool args: %w", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode tool args: %w", err)
		}
		return nil
	}
	return fmt.Errorf("model returned no %s tool call", fnName)
}

func (g *GeminiGenerator) firstPassPrompt(title, content, lastUpdated string, mediaURLs []string) string {
	var b strings.Builder
	b.WriteString("You generate FAQ entries for encyclopedia pages.\n\n")
	fmt.Fprintf(&b, "Page title: %s\n", title)
	if lastUpdated != "" {
		fmt.Fprintf(&b, "Last updated: %s\n", lastUpdated)
	}
	b.WriteString(`
Read the page content below and produce a thorough set of question/answer
pairs covering its major sections. Rules:
- Each answer must stand alone and run at least three sentences.
- Group questions under the page's section headings via "subheader".
- List titles of other pages the answer draws on in "cross_links".
- Attach at most one relevant image URL per FAQ in "media_links", chosen only
  from the candidate image URLs listed below, each used at most once across
  the whole set.
`)
	if len(mediaURLs) > 0 {
		b.WriteString("\nCandidate image URLs:\n")
		for _, u := range mediaURLs {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	b.WriteString("\nPage content:\n")
	b.WriteString(content)
	return b.String()
}

func (g *GeminiGenerator) secondPassPrompt(title, content string, existing []models.GeneratedFaq) string {
	var b strings.Builder
	b.WriteString("You generate FAQ entries for encyclopedia pages.\n\n")
	fmt.Fprintf(&b, "Page title: %s\n", title)
	b.WriteString(`
A first generation pass already produced the FAQs listed below. Produce only
additional question/answer pairs covering material the first pass missed.
Rules:
- Do not repeat or rephrase any existing question.
- Do not use any image URL listed as already used.
- Each answer must stand alone and run at least three sentences.
- Returning no additional FAQs is acceptable when the page is fully covered.

Existing questions:
`)
	for _, f := range existing {
		if f.Subheader != "" {
			fmt.Fprintf(&b, "- [%s] %s\n", f.Subheader, f.Question)
		} else {
			fmt.Fprintf(&b, "- %s\n", f.Question)
		}
	}

	used := UsedMediaURLs(existing)
	if len(used) > 0 {
		b.WriteString("\nAlready used image URLs:\n")
		for _, u := range used {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	b.WriteString("\nPage content:\n")
	b.WriteString(content)
	return b.String()
}

func (g *GeminiGenerator) countAttempt(pass string, err error) {
	if g.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	g.metrics.LLMAttemptsTotal.WithLabelValues(pass, result).Inc()
}

// UsedMediaURLs collects every media URL consumed by the given FAQs.
func UsedMediaURLs(faqs []models.GeneratedFaq) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range faqs {
		for _, u := range f.MediaLinks {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// validFaqs drops items missing the required question or answer. The schema
// marks them required but the model is not always obedient.
func validFaqs(in []models.GeneratedFaq) []models.GeneratedFaq {
	out := in[:0]
	for _, f := range in {
		if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

var _ core.FaqGenerator = (*GeminiGenerator)(nil)
