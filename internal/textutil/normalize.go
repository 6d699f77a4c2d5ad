package textutil

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// whitespacePattern matches runs of whitespace for collapsing.
var whitespacePattern = regexp.MustCompile(`\s+`)

// foldTransformer decomposes characters and strips combining marks, so
// "Café" and "Cafe" normalize identically.
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeText lowercases text, removes diacritics, and collapses
// whitespace runs to single spaces.
func NormalizeText(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	lowered := strings.ToLower(folded)
	collapsed := whitespacePattern.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(collapsed)
}

// trackingParams are query parameters dropped during URL normalization.
// They vary per fetch without changing the linked resource.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"ref":          {},
}

// NormalizeURL canonicalizes a link for fingerprinting: lowercased scheme
// and host, default ports and fragments dropped, tracking query parameters
// removed, trailing slash trimmed. Unparseable input is returned trimmed
// and lowercased so fingerprinting still gets a stable value.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(trimmed)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	switch {
	case parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80"):
		parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	case parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443"):
		parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	}
	if query := parsed.Query(); len(query) > 0 {
		for key := range query {
			if _, drop := trackingParams[strings.ToLower(key)]; drop {
				query.Del(key)
			}
		}
		parsed.RawQuery = query.Encode()
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed.String()
}
