package clean

import (
	"regexp"
	"strings"
)

// canonicalizer maps typographic variants onto plain ASCII equivalents
// and deletes zero-width characters. Runs first so every later pass sees
// a single spelling of each mark.
var canonicalizer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	// Latin ligatures, common in print-quality PDFs.
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	// Curly quotes to straight.
	"‘", "'",
	"’", "'",
	"‚", "'",
	"‛", "'",
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‟", `"`,
	"…", "...",
	// Zero-width and joiner characters.
	"​", "",
	"‌", "",
	"‍", "",
	"⁠", "",
	"﻿", "",
)

func canonicalize(text string) string {
	return canonicalizer.Replace(text)
}

// quoteInventoryRe covers quote and prime marks left after
// canonicalization. The straight apostrophe stays: contractions and
// possessives must survive for natural narration.
var quoteInventoryRe = regexp.MustCompile("[\"`´«»‹›〝〞＂˝′‵″ʹ]")

func stripQuotes(text string) string {
	return quoteInventoryRe.ReplaceAllString(text, "")
}

var (
	specialCharRe = regexp.MustCompile(`[~*{}<>^\[\]@\x{2022}=_/\\|\x{00a3}\x{00a7}]`)
	controlRe     = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	ellipsisRunRe = regexp.MustCompile(`\.{3,}`)
	multiPunctRe  = regexp.MustCompile(`([,.;:!?])[,.;:!?]+`)
	spaceBeforeRe = regexp.MustCompile(`[ \t]+([,.;:!?])`)
	spaceAfterRe  = regexp.MustCompile(`([.?!])([A-Z])`)
	spacedDashRe  = regexp.MustCompile(`-[ \t]+-`)
	multiSpaceRe  = regexp.MustCompile(`[ \t]{2,}`)
)

// tidyPunctuation scrubs ornamental characters, collapses punctuation
// runs (period runs of three or more become an ellipsis) and enforces
// no-space-before / one-space-after around sentence marks.
func tidyPunctuation(text string) string {
	text = controlRe.ReplaceAllString(text, " ")
	text = specialCharRe.ReplaceAllString(text, " ")

	// Ellipses hide behind a placeholder rune while punctuation runs
	// collapse, then come back as three dots.
	text = ellipsisRunRe.ReplaceAllString(text, "…")
	text = multiPunctRe.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "…", "...")

	text = spaceBeforeRe.ReplaceAllString(text, "$1")
	text = spaceAfterRe.ReplaceAllString(text, "$1 $2")
	text = spacedDashRe.ReplaceAllString(text, "-")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
