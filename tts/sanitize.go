package tts

import (
	"regexp"
	"strings"
)

// Engines choke on raw control bytes and some CLIs mangle ampersands,
// so every piece of text is scrubbed right before synthesis. Newlines
// and tabs are legitimate pause hints and pass through untouched.
var (
	sanitizeCtrlRe  = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	sanitizeSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// Sanitize makes text safe to hand to a synthesis engine without
// changing how it reads aloud.
func Sanitize(text string) string {
	text = sanitizeCtrlRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&", " and ")
	text = sanitizeSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
