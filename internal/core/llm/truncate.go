package llm

import (
	"strings"
	"unicode/utf8"
)

// DefaultContentBudget is the per-request character budget for page content,
// roughly 90k tokens at 4 chars per token.
const DefaultContentBudget = 360000

// TruncateContent trims content to at most budget characters, cutting at the
// last sentence boundary inside the budget so the model never sees a
// mid-sentence cut. Content under budget is returned unchanged.
func TruncateContent(content string, budget int) string {
	if budget <= 0 {
		budget = DefaultContentBudget
	}
	if len(content) <= budget {
		return content
	}
	prefix := content[:budget]
	if idx := strings.LastIndex(prefix, ". "); idx >= 0 {
		return prefix[:idx+1]
	}
	// No sentence boundary: hard cut, backed up so no rune is split.
	cut := budget
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
