package docload

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// loadText decodes a plain-text file. Line endings are normalized so the
// rest of the pipeline only ever sees \n.
func loadText(data []byte) (title, text string) {
	text = normalizeNewlines(decodeText(data))
	return firstLine(text), text
}

// decodeText assumes UTF-8 and falls back to Latin-1, whose bytes map
// one-to-one onto code points. Better a few mojibake runes than a
// rejected book.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

var (
	mdImageRe  = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLinkRe   = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdStrongRe = regexp.MustCompile(`\*{1,3}([^*]+)\*{1,3}`)
	mdEmRe     = regexp.MustCompile(`\b_{1,2}([^_]+)_{1,2}\b`)
	mdCodeRe   = regexp.MustCompile("`([^`]*)`")
)

// loadMarkdown flattens Markdown into narration text: headings become
// plain lines, paragraphs are joined, inline syntax is stripped down to
// its visible text. The first level-1 heading becomes the title.
func loadMarkdown(data []byte) (title, text string) {
	src := normalizeNewlines(decodeText(data))

	var (
		blocks []string
		para   []string
	)
	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, strings.Join(para, " "))
			para = nil
		}
	}

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if level, heading := parseHeading(trimmed); level > 0 {
			flush()
			if title == "" && level == 1 {
				title = heading
			}
			blocks = append(blocks, heading)
			continue
		}
		para = append(para, stripInlineMarkdown(trimmed))
	}
	flush()

	text = strings.Join(blocks, "\n\n")
	if title == "" {
		title = firstLine(text)
	}
	return title, text
}

// parseHeading recognizes ATX headings (# through ######).
func parseHeading(line string) (int, string) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(line) || line[level] != ' ' {
		return 0, ""
	}
	heading := strings.TrimSpace(line[level+1:])
	heading = strings.TrimRight(heading, "# ")
	return level, stripInlineMarkdown(heading)
}

func stripInlineMarkdown(s string) string {
	s = mdImageRe.ReplaceAllString(s, "$1")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = mdStrongRe.ReplaceAllString(s, "$1")
	s = mdEmRe.ReplaceAllString(s, "$1")
	s = mdCodeRe.ReplaceAllString(s, "$1")
	return s
}
