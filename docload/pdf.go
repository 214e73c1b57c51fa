package docload

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// pdfInfo carries structural facts about a PDF gathered during extraction.
type pdfInfo struct {
	Pages     int
	HasImages bool
}

// pdfStringRe matches literal strings in content streams. Escaped parens
// inside strings are not handled; they are rare in text operators.
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractWithPDFCPU pulls text straight out of PDF content streams.
// Fast and pure Go, but blind to glyph positioning, so multi-column
// layouts can interleave.
func extractWithPDFCPU(data []byte) (string, *pdfInfo, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	info := &pdfInfo{Pages: pctx.PageCount}
	pages := make([]string, 0, pctx.PageCount)

	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if len(pdfcpu.ImageObjNrs(pctx, pageNr)) > 0 {
			info.HasImages = true
		}

		r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil || r == nil {
			pages = append(pages, "")
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, streamText(raw))
	}

	if !info.HasImages {
		info.HasImages = xrefHasImages(pctx)
	}

	return strings.Join(pages, PageBreak), info, nil
}

// streamText walks content-stream operators and assembles their text.
// Tj/TJ emit strings; ' and T* start new lines; Td/TD usually mean a
// fresh text position, which in practice is a new visual line.
func streamText(stream []byte) string {
	var sb strings.Builder
	for _, line := range strings.Split(string(stream), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasSuffix(line, "Tj"), strings.HasSuffix(line, "TJ"):
			for _, m := range pdfStringRe.FindAllStringSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case strings.HasSuffix(line, "'"):
			sb.WriteByte('\n')
			for _, m := range pdfStringRe.FindAllStringSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case strings.HasSuffix(line, "Td"), strings.HasSuffix(line, "TD"):
			sb.WriteByte('\n')
		case line == "T*":
			sb.WriteByte('\n')
		}
	}
	return tidyPageText(sb.String())
}

// decodePDFString resolves the escape sequences of a PDF literal string.
func decodePDFString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			break
		}
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '(', ')', '\\':
			sb.WriteByte(s[i])
		default:
			if s[i] >= '0' && s[i] <= '7' {
				val, n := 0, 0
				for n < 3 && i < len(s) && s[i] >= '0' && s[i] <= '7' {
					val = val*8 + int(s[i]-'0')
					i++
					n++
				}
				i--
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(s[i])
			}
		}
	}
	return sb.String()
}

// tidyPageText collapses space runs and blank-line runs while keeping the
// line structure the cleaner relies on for header and footnote detection.
func tidyPageText(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = false
		case r == ' ' || r == '\t':
			if !prevSpace {
				sb.WriteByte(' ')
			}
			prevSpace = true
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}

	var out []string
	lastBlank := false
	for _, ln := range strings.Split(sb.String(), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			if lastBlank || len(out) == 0 {
				continue
			}
			lastBlank = true
			out = append(out, "")
			continue
		}
		lastBlank = false
		out = append(out, ln)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

// xrefHasImages scans the cross-reference table for image XObjects when
// no page reported one directly.
func xrefHasImages(pctx *model.Context) bool {
	if pctx.XRefTable == nil {
		return false
	}
	for _, entry := range pctx.XRefTable.Table {
		if entry == nil || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if sub := sd.Dict["Subtype"]; sub != nil {
			if name, ok := sub.(types.Name); ok && name.Value() == "Image" {
				return true
			}
		}
	}
	return false
}
