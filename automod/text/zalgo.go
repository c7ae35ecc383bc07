package text

import (
	"unicode"

	"github.com/rivo/uniseg"
)

// Fixed detection thresholds. The policy schema carries no parameters for
// the zalgo rule, so these are engine constants.
const (
	// more combining marks than this stacked on one base character flags the text
	maxMarksPerCluster = 4
	// combining-mark share of all code points above which longer texts are flagged
	maxMarkRatio = 0.25
	// minimum text length (in code points) for the ratio check to apply
	ratioMinLength = 8
)

func isCombiningMark(r rune) bool {
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r)
}

// IsZalgo reports whether the text contains excessive combining-mark density:
// either a single grapheme cluster stacking more than maxMarksPerCluster
// marks on its base character, or (for texts of at least ratioMinLength code
// points) combining marks making up more than maxMarkRatio of all code
// points. Plain text without combining marks is never flagged.
func IsZalgo(raw string) bool {
	totalRunes := 0
	totalMarks := 0

	g := uniseg.NewGraphemes(raw)
	for g.Next() {
		clusterMarks := 0
		for _, r := range g.Runes() {
			totalRunes++
			if isCombiningMark(r) {
				clusterMarks++
				totalMarks++
			}
		}
		if clusterMarks > maxMarksPerCluster {
			return true
		}
	}

	if totalRunes >= ratioMinLength && totalMarks > 0 {
		if float64(totalMarks)/float64(totalRunes) > maxMarkRatio {
			return true
		}
	}
	return false
}
