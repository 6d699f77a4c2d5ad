package generator

import (
	"fmt"
	"strings"

	"gazette/internal/store"
)

const generateSystemPrompt = `You write short, factual articles for a neighborhood newsletter.
Given one source item, respond with a single JSON object and nothing else:
{"title": "<headline>", "body": "<2-4 paragraph article>", "confidence": <optional float 0..1>}
Stick strictly to facts present in the source material. Do not invent quotes,
names, dates, or details.`

const maxSourceTextLen = 6000

func generateUserPrompt(item *store.Item, neighborhood string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source title: %s\n", item.Title)
	if item.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", item.Category)
	}
	if neighborhood != "" {
		fmt.Fprintf(&b, "Target neighborhood: %s\n", neighborhood)
	}
	if item.Link != "" {
		fmt.Fprintf(&b, "Source link: %s\n", item.Link)
	}
	text := item.ContentText
	if len(text) > maxSourceTextLen {
		text = text[:maxSourceTextLen]
	}
	if text != "" {
		fmt.Fprintf(&b, "Source text:\n%s\n", text)
	}
	return b.String()
}
