// Package sentence splits narration text into sentences without falling
// for abbreviation periods.
//
// The classic failure is "Dr. Smith went home." splitting after "Dr.".
// Segment works in three steps: periods belonging to known abbreviations,
// dotted degrees and initial chains are swapped for a placeholder rune,
// the text is split on real sentence boundaries, and the placeholders are
// restored. The result joined with single spaces reproduces the input's
// sentence content.
package sentence

import (
	"regexp"
	"strings"
)

// dotMark stands in for protected periods. NUL cannot occur in cleaned
// text, so restore is collision-free.
const dotMark = "\x00"

var (
	// Titles, reference labels and month abbreviations. Longest
	// alternatives first: the regexp engine takes the first branch that
	// matches.
	abbrevRe = regexp.MustCompile(`(?i)\b(Mrs|Mr|Ms|Dr|Prof|Sr|Jr|St|vs|etc|Fig|No|Vol|pp|p|Ch|Mt|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec)\.`)

	// Dotted academic degrees: "Ph.D.", "B. A.", "Ed.D.".
	degreeRe = regexp.MustCompile(`\b(B|M|Ph|Ed)\.(\s*)([AD])\.`)

	// Neighbouring single-letter initials: "J. R." protects the first
	// dot; applied repeatedly to walk chains like "J. R. R.".
	initialPairRe = regexp.MustCompile(`\b([A-Za-z])\.([ \t]*)([A-Za-z])\.`)

	// A sentence boundary is terminal punctuation, whitespace, then an
	// uppercase letter or an opening quote, paren or bracket.
	boundaryRe = regexp.MustCompile(`([.?!])([ \t\n]+)(["'(\[A-Z])`)
)

// Segment splits text into sentences, order preserved, empties dropped.
// It is a pure function: the same input always yields the same slice.
func Segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	protected := protect(text)

	var parts []string
	start := 0
	for _, loc := range boundaryRe.FindAllStringSubmatchIndex(protected, -1) {
		// loc[3] is the end of the punctuation group, loc[6] the start
		// of the next sentence's opening character.
		parts = append(parts, protected[start:loc[3]])
		start = loc[6]
	}
	parts = append(parts, protected[start:])

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(restore(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func protect(text string) string {
	text = abbrevRe.ReplaceAllString(text, "${1}"+dotMark)
	text = degreeRe.ReplaceAllString(text, "${1}"+dotMark+"${2}${3}"+dotMark)
	for {
		next := initialPairRe.ReplaceAllString(text, "${1}"+dotMark+"${2}${3}.")
		if next == text {
			break
		}
		text = next
	}
	return text
}

func restore(text string) string {
	return strings.ReplaceAll(text, dotMark, ".")
}
