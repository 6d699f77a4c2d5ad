package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ItemFingerprint derives the stable identity of a feed entry from its
// source and normalized link, falling back to the normalized title when the
// entry carries no link. Returns "" when neither link nor title yields a
// usable key; such entries cannot be deduplicated and are skipped upstream.
func ItemFingerprint(sourceID int64, link, title string) string {
	key := NormalizeURL(link)
	if key == "" {
		key = NormalizeText(title)
	}
	if key == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(strconv.FormatInt(sourceID, 10))
	b.WriteByte('|')
	b.WriteString(key)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
