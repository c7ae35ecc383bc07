package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips combining marks and lower-cases the text, so that rule
// patterns see through decorated-unicode obfuscation (eg stylized usernames).
// Falls back to plain lower-casing if the transform fails; matching slightly
// more loosely is safer than skipping the check.
func Fold(raw string) string {
	// the transform chain is stateful, so build a fresh one per call
	foldFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(foldFunc, raw)
	if err != nil {
		folded = raw
	}
	return strings.ToLower(folded)
}
