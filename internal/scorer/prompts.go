package scorer

import (
	"fmt"
	"strings"

	"gazette/internal/store"
)

const scoreSystemPrompt = `You rate local news items for a neighborhood newsletter.
Given one item, respond with a single JSON object and nothing else:
{"score": <float 0..1>, "category": "<events|safety|business|development|schools|community|sports|other>", "neighborhood_ids": ["<optional>"], "reasoning": "<one sentence>"}
Score 1.0 means highly relevant, timely neighborhood news; 0.0 means irrelevant or spam.`

const maxPromptContentLen = 4000

func scoreUserPrompt(item *store.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	if item.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", item.Link)
	}
	if item.PublishedAt != nil {
		fmt.Fprintf(&b, "Published: %s\n", item.PublishedAt.Format("2006-01-02"))
	}
	content := item.ContentText
	if len(content) > maxPromptContentLen {
		content = content[:maxPromptContentLen]
	}
	if content != "" {
		fmt.Fprintf(&b, "Content:\n%s\n", content)
	}
	return b.String()
}
