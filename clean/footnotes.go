package clean

import (
	"regexp"
	"strings"
)

var (
	bracketNumRe    = regexp.MustCompile(`\[\s*\d+\s*\]`)
	parenNumRe      = regexp.MustCompile(`\(\s*\d+\s*\)`)
	afterPunctNumRe = regexp.MustCompile(`([.!?,;:])[ \t]*\d{1,3}\b`)
	superscriptRe   = regexp.MustCompile(`[\x{00b9}\x{00b2}\x{00b3}\x{2070}-\x{2079}\x{2020}\x{2021}]+`)
	pageCitationRe  = regexp.MustCompile(`(?i)\(?\b(?:p|pp)\.\s*(?:\d{1,4}|[ivxlcdm]{1,6})(?:\s*[-\x{2013}]\s*(?:\d{1,4}|[ivxlcdm]{1,6}))?\)?[.,;:]?`)
	urlRe           = regexp.MustCompile(`https?://\S+`)
	wwwRe           = regexp.MustCompile(`\bwww\.\S+`)
	emailRe         = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	authorYearRe    = regexp.MustCompile(`\([A-Z][a-z]+(?:\s+et\s+al\.?)?,?\s+\d{4}\)`)
	citationLineRe  = regexp.MustCompile(`(?i)^\s*(?:op\.\s?cit|ibid|loc\.\s?cit|cf\.|et\s+al|supra|infra|passim|ff\.|see\s+also|nota\s+bene|n\.\s?b\.|vide|viz|i\.e|e\.g)[.,:\s]`)
	footnoteStartRe = regexp.MustCompile(`^\s*(?:\d{1,3}[.)]|[*\x{2020}\x{2021}])\s+`)
)

// stripFootnotes removes reading-flow poison: footnote blocks at page
// bottoms, inline markers, scholarly citations, URLs and emails. None of
// this survives aloud; a listener cannot follow "[3]" or "(Smith, 1987)".
func stripFootnotes(text string) string {
	pages := strings.Split(text, PageBreak)
	for i, page := range pages {
		pages[i] = cutFootnoteBlock(page)
	}
	text = strings.Join(pages, PageBreak)

	text = bracketNumRe.ReplaceAllString(text, "")
	text = parenNumRe.ReplaceAllString(text, "")
	text = superscriptRe.ReplaceAllString(text, "")
	text = afterPunctNumRe.ReplaceAllString(text, "$1")
	text = pageCitationRe.ReplaceAllString(text, "")
	text = authorYearRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = wwwRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	return dropCitationLines(text)
}

// cutFootnoteBlock truncates a page at the first footnote-looking line
// in its bottom region (last 15 lines, or the final quarter of a long
// page). Footnotes run from their first marker to the page end, so
// cutting there removes the whole block.
func cutFootnoteBlock(page string) string {
	lines := strings.Split(page, "\n")
	n := len(lines)
	start := n - 15
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		if !footnoteStartRe.MatchString(lines[i]) {
			continue
		}
		if n-i <= 14 || i*4 >= n*3 {
			return strings.Join(lines[:i], "\n")
		}
	}
	return page
}

func dropCitationLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, ln := range lines {
		if citationLineRe.MatchString(ln) {
			continue
		}
		out = append(out, ln)
	}
	return strings.Join(out, "\n")
}
