// Package clean normalizes extracted document text into narration-ready
// form: one whitespace-normalized paragraph with headers, footnotes,
// broken hyphenation and OCR artifacts repaired.
//
// The work is organized as an ordered list of named passes. Ordering is
// a correctness constraint: hyphen repair must see original line breaks,
// so it runs before paragraph joining; page-aware passes must see the
// form-feed page markers, so they run before anything that removes them.
package clean

import (
	"regexp"
	"strings"
	"unicode"
)

// PageBreak is the page separator the loader writes between PDF pages.
const PageBreak = "\f"

// Options selects the destructive passes. Canonicalization, hyphen
// repair and flattening always run.
type Options struct {
	// StripHeaders removes running page headers and isolated page numbers.
	StripHeaders bool `json:"strip_headers" yaml:"strip_headers"`

	// StripFootnotes removes footnote markers, footnote blocks at page
	// bottoms, citations, URLs and email addresses.
	StripFootnotes bool `json:"strip_footnotes" yaml:"strip_footnotes"`
}

// Pass is one named transform. Every pass is a pure function and safe to
// run on its own, but only the Passes order gives the documented result.
type Pass struct {
	Name string
	Fn   func(string) string
}

// Passes returns the ordered pipeline for the given options.
func Passes(opts Options) []Pass {
	passes := []Pass{
		{"canonicalize", canonicalize},
	}
	if opts.StripHeaders {
		passes = append(passes, Pass{"strip-headers", stripHeaders})
	}
	passes = append(passes, Pass{"repair-hyphens", repairHyphens})
	if opts.StripFootnotes {
		passes = append(passes, Pass{"strip-footnotes", stripFootnotes})
	}
	passes = append(passes,
		Pass{"strip-quotes", stripQuotes},
		Pass{"join-paragraphs", joinParagraphs},
		Pass{"tidy-punctuation", tidyPunctuation},
		Pass{"repair-ocr", repairOCR},
		Pass{"flatten", flatten},
	)
	return passes
}

// Normalize runs the full pipeline. If cleaning leaves implausibly little
// text compared to the input, the passes are assumed to have eaten the
// document and a minimally-normalized version of the original is returned
// instead. Cleaning must never destroy a book.
func Normalize(text string, opts Options) string {
	out := text
	for _, p := range Passes(opts) {
		out = p.Fn(out)
	}
	if len(out) < safetyFloor(len(text)) {
		return flatten(canonicalize(text))
	}
	return out
}

// safetyFloor is the survival threshold: the larger of 50 bytes or 0.1%
// of the raw input.
func safetyFloor(rawLen int) int {
	floor := rawLen / 1000
	if floor < 50 {
		floor = 50
	}
	return floor
}

var paragraphGapRe = regexp.MustCompile(`\n[ \t]*\n+`)

// joinParagraphs turns intra-paragraph line breaks into spaces. Blank
// lines and page breaks become paragraph separators, which the final
// flatten later reduces to plain spaces.
func joinParagraphs(text string) string {
	text = strings.ReplaceAll(text, PageBreak, "\n\n")
	paras := paragraphGapRe.Split(text, -1)
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		joined := strings.Join(strings.Fields(p), " ")
		if joined != "" {
			out = append(out, joined)
		}
	}
	return strings.Join(out, "\n\n")
}

// flatten produces the final contract: a single paragraph with no
// newlines, no control characters and single spaces throughout.
func flatten(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || r == '\f' || r == '\r' {
			sb.WriteByte(' ')
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
