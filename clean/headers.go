package clean

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	pageNumberRe    = regexp.MustCompile(`^\d{1,4}$`)
	romanNumeralRe  = regexp.MustCompile(`(?i)^[ivxlcdm]{1,6}$`)
	headerKeywordRe = regexp.MustCompile(`(?i)^(chapter|page|volume|vol\.?|part|book)\b`)
)

// stripHeaders removes running headers and page-number furniture. Pages
// are the form-feed segments the loader produced; plain text without
// page breaks counts as a single page. At most one header line is ever
// removed per page, plus any standalone page-number lines.
func stripHeaders(text string) string {
	pages := strings.Split(text, PageBreak)
	repeated := repeatedFirstLines(pages)
	for i, page := range pages {
		pages[i] = stripPageHeader(page, repeated)
	}
	return strings.Join(pages, PageBreak)
}

// repeatedFirstLines finds first lines recurring across three or more
// pages. A line repeating at the top of many pages is a running header
// no matter how ordinary it looks.
func repeatedFirstLines(pages []string) map[string]bool {
	if len(pages) < 3 {
		return nil
	}
	counts := make(map[string]int)
	for _, page := range pages {
		line := strings.TrimSpace(firstNonEmptyLine(page))
		if line == "" || len([]rune(line)) > 80 || hasTerminalPunct(line) {
			continue
		}
		counts[line]++
	}
	repeated := make(map[string]bool)
	for line, n := range counts {
		if n >= 3 {
			repeated[line] = true
		}
	}
	return repeated
}

func stripPageHeader(page string, repeated map[string]bool) string {
	lines := strings.Split(page, "\n")
	out := make([]string, 0, len(lines))
	headerSeen := false
	for _, ln := range lines {
		trimmed := strings.TrimSpace(ln)
		if trimmed == "" {
			out = append(out, ln)
			continue
		}
		if !headerSeen {
			headerSeen = true
			if repeated[trimmed] || headerLike(trimmed) {
				continue
			}
		}
		if pageToken(trimmed) {
			continue
		}
		out = append(out, ln)
	}
	return strings.Join(out, "\n")
}

// headerLike applies the conservative header test: short, no terminal
// sentence punctuation, and shaped like a page number, an all-caps run
// or a chapter/page/volume label.
func headerLike(line string) bool {
	runes := []rune(line)
	if len(runes) == 0 || len(runes) > 80 {
		return false
	}
	if hasTerminalPunct(line) {
		return false
	}
	if pageToken(line) {
		return true
	}
	if len(strings.Fields(line)) >= 10 {
		return false
	}
	if headerKeywordRe.MatchString(line) {
		return true
	}
	return allCaps(line)
}

func pageToken(s string) bool {
	return pageNumberRe.MatchString(s) || romanNumeralRe.MatchString(s)
}

func hasTerminalPunct(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

func allCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func firstNonEmptyLine(page string) string {
	for _, ln := range strings.Split(page, "\n") {
		if strings.TrimSpace(ln) != "" {
			return ln
		}
	}
	return ""
}
