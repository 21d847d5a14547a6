package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the deterministic cache key for a question and an
// optional source filter. The question is normalized (lowercased, interior
// whitespace collapsed) so trivially reformatted questions share one entry;
// the filter is joined with a unit separator so ("a b", "") and ("a", "b")
// can never collide.
func Fingerprint(question, fileFilter string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalized + "\x1f" + fileFilter))
	return hex.EncodeToString(sum[:])
}
