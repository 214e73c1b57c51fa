package docload

import (
	"regexp"
	"strings"
	"unicode"
)

// Scoring weights. Letters, spacing and word shape carry most of the
// signal; line structure is a bonus on top.
const (
	letterWeight = 0.30
	spaceWeight  = 0.20
	wordWeight   = 0.30
	lineWeight   = 0.20

	targetSpaceRatio = 0.16
	minScorableRunes = 20
)

// brokenPairRe matches common two-letter words split by a stray space,
// a frequent artifact of glyph-by-glyph PDF extraction.
var brokenPairRe = regexp.MustCompile(`(?i)\b(t\s+he|w\s+as|i\s+s|a\s+re|h\s+as|h\s+ad|w\s+ith|f\s+rom|t\s+hat|t\s+his)\b`)

// Score rates extracted text from 0 (garbage) to 1 (clean prose).
//
// It compares letter density, space density and average word length
// against what natural-language text looks like, rewards reasonable line
// structure, and penalizes jammed-together words, control/garbage runes
// and broken word pairs. Texts under 20 runes carry no signal and score 0.
func Score(text string) float64 {
	runes := []rune(strings.TrimSpace(text))
	total := len(runes)
	if total < minScorableRunes {
		return 0
	}

	var letters, spaces, junk int
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ' || r == '\t':
			spaces++
		}
		if isGarbageRune(r) {
			junk++
		}
	}

	letterRatio := float64(letters) / float64(total)
	spaceRatio := float64(spaces) / float64(total)

	score := letterWeight * minF(letterRatio/0.75, 1)

	spaceDrift := minF(absF(spaceRatio-targetSpaceRatio)/targetSpaceRatio, 1)
	score += spaceWeight * (1 - spaceDrift)

	avgWord := averageTokenLength(text)
	score += wordWeight * wordLengthScore(avgWord)
	score += lineWeight * lineStructureScore(text)

	// Jammed text: tokens far beyond natural word length mean lost spaces.
	if avgWord > 15 {
		score -= 0.5 * minF((avgWord-15)/15, 1)
	}

	junkRatio := float64(junk) / float64(total)
	score -= 2 * junkRatio

	if n := len(brokenPairRe.FindAllStringIndex(text, -1)); n > 0 {
		score -= minF(0.03*float64(n), 0.3)
	}

	return clampF(score, 0, 1)
}

// wordLengthScore peaks for average word lengths in the natural 3..8 rune
// band and decays linearly outside it.
func wordLengthScore(avg float64) float64 {
	switch {
	case avg <= 0:
		return 0
	case avg < 3:
		return clampF((avg-1)/2, 0, 1)
	case avg <= 8:
		return 1
	case avg < 15:
		return (15 - avg) / 7
	default:
		return 0
	}
}

// lineStructureScore is the fraction of non-empty lines with plausible
// prose lengths. Single enormous lines or dust lines drag it down.
func lineStructureScore(text string) float64 {
	var total, plausible int
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\f' }) {
		n := len([]rune(strings.TrimSpace(line)))
		if n == 0 {
			continue
		}
		total++
		if n >= 20 && n <= 180 {
			plausible++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(plausible) / float64(total)
}

func averageTokenLength(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}
	var runes int
	for _, t := range tokens {
		runes += len([]rune(t))
	}
	return float64(runes) / float64(len(tokens))
}

// isGarbageRune reports characters that signal a broken extraction:
// private-use glyphs, the replacement char and raw control bytes.
func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x20 && r != '\n' && r != '\r' && r != '\t' && r != '\f' {
		return true
	}
	return false
}

// wordlikeRatio is the fraction of whitespace tokens shaped like words
// (2..15 runes, mostly letters). Used by PDF quality metrics.
func wordlikeRatio(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}
	wordlike := 0
	for _, tok := range tokens {
		runes := []rune(tok)
		if len(runes) < 2 || len(runes) > 15 {
			continue
		}
		letters := 0
		for _, r := range runes {
			if unicode.IsLetter(r) {
				letters++
			}
		}
		if float64(letters)/float64(len(runes)) > 0.6 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(tokens))
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
