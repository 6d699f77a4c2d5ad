package validator

import (
	"fmt"
	"strings"

	"gazette/internal/store"
)

const validateSystemPrompt = `You review draft articles for a neighborhood newsletter before publication.
Respond with a single JSON object and nothing else:
{"confidence": <float 0..1>, "checks": {"accuracy": <bool>, "relevance": <bool>, "safety": <bool>, "quality": <bool>}, "flags": ["<issue>"], "notes": "<short summary>"}
Flag anything that looks invented, unsafe, misleading, or off-topic. An
empty flags array means the draft is publishable as-is.`

const maxDraftBodyLen = 8000

func validateUserPrompt(content *store.Content) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", content.Title)
	if content.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", content.Category)
	}
	body := content.Body
	if len(body) > maxDraftBodyLen {
		body = body[:maxDraftBodyLen]
	}
	fmt.Fprintf(&b, "Body:\n%s\n", body)
	return b.String()
}
