package clean

import "regexp"

// hyphenClass covers every hyphen-like glyph seen in the wild: ASCII
// hyphen, soft hyphen, the Unicode dash block, minus sign and a few
// OCR-confusable lookalikes.
const hyphenClass = `[-\x{00ad}\x{2010}-\x{2015}\x{2212}\x{2043}\x{05be}\x{1400}\x{1806}\x{2e3a}\x{2e3b}\x{fe63}\x{ff0d}\x{30a0}]`

var (
	softHyphenRe = regexp.MustCompile(`\x{00ad}[ \t]*`)
	lineHyphenRe = regexp.MustCompile(`([A-Za-z])` + hyphenClass + `\n[ \t]*([A-Za-z])`)
	midHyphenRe  = regexp.MustCompile(`([A-Za-z])` + hyphenClass + ` ([A-Za-z])`)
)

// repairHyphens fuses words broken across line ends ("intellec-\ntual")
// or by a stray space after the hyphen ("intellec- tual"). Must run
// before paragraph joining, which would otherwise merge the break into a
// space and hide it. Dashes between spaced words are left alone: the
// fuse requires a letter directly on each side.
func repairHyphens(text string) string {
	text = softHyphenRe.ReplaceAllString(text, "")
	text = lineHyphenRe.ReplaceAllString(text, "$1$2")
	text = midHyphenRe.ReplaceAllString(text, "$1$2")
	return text
}
