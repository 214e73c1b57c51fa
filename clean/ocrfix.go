package clean

import (
	"regexp"
	"strings"
)

var (
	// Scan artifact: words shattered into single spaced letters.
	fuse5Re = regexp.MustCompile(`\b([A-Za-z]) ([A-Za-z]) ([A-Za-z]) ([A-Za-z]) ([A-Za-z])\b`)
	fuse4Re = regexp.MustCompile(`\b([A-Za-z]) ([A-Za-z]) ([A-Za-z]) ([A-Za-z])\b`)
	fuse3Re = regexp.MustCompile(`\b([A-Za-z]) ([A-Za-z]) ([A-Za-z])\b`)

	// Common words split once by a stray space.
	brokenWordRe = regexp.MustCompile(`(?i)\b(t\s+he|w\s+as|i\s+s|a\s+re|h\s+as|h\s+ad|w\s+ith|f\s+rom|t\s+hat|t\s+his|o\s+f|t\s+o|i\s+n|i\s+t|o\s+n|b\s+e|b\s+y|a\s+nd|n\s+ot|y\s+ou)\b`)

	// Words jammed together with the space lost between them.
	camelJamRe = regexp.MustCompile(`([a-z])([A-Z])`)

	// Digit-for-letter confusions, fixed only between letters.
	zeroForORe = regexp.MustCompile(`([A-Za-z])0([A-Za-z])`)
	oneForLRe  = regexp.MustCompile(`([A-Za-z])1([A-Za-z])`)
	fiveForSRe = regexp.MustCompile(`([A-Za-z])5([A-Za-z])`)
)

// repairOCR fixes the recurring artifacts of scanned sources: spaced-out
// letters fused back into words, known words rejoined across a stray
// space, jammed word pairs re-separated, and classic digit/letter
// confusions (0/o, 1/l, 5/s) corrected inside alphabetic tokens.
func repairOCR(text string) string {
	text = fuse5Re.ReplaceAllString(text, "$1$2$3$4$5")
	text = fuse4Re.ReplaceAllString(text, "$1$2$3$4")
	text = fuse3Re.ReplaceAllString(text, "$1$2$3")

	text = brokenWordRe.ReplaceAllStringFunc(text, dropInnerSpace)

	text = camelJamRe.ReplaceAllString(text, "$1 $2")

	text = zeroForORe.ReplaceAllString(text, "${1}o${2}")
	text = oneForLRe.ReplaceAllString(text, "${1}l${2}")
	text = fiveForSRe.ReplaceAllString(text, "${1}s${2}")
	return text
}

func dropInnerSpace(m string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, m)
}
