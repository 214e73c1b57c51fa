package docload

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

// extractWithLPDF reassembles text from positioned glyph runs. Slower
// than the stream walk but keeps reading order on layouts where operator
// order and visual order disagree. The library panics on some malformed
// files, so the whole pass runs under a recover.
func extractWithLPDF(data []byte) (text string, info *pdfInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, info = "", nil
			err = fmt.Errorf("lpdf: %v", r)
		}
	}()

	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("lpdf open: %w", err)
	}

	info = &pdfInfo{Pages: r.NumPage()}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, rowsToText(page.Content().Text))
	}
	return strings.Join(pages, PageBreak), info, nil
}

// rowsToText buckets glyph runs into visual rows by Y position, orders
// rows top to bottom and runs left to right, and inserts spaces where the
// horizontal gap between runs exceeds a fraction of the font size.
func rowsToText(runs []lpdf.Text) string {
	if len(runs) == 0 {
		return ""
	}

	const yTol = 2.0
	rows := make(map[int][]lpdf.Text)
	for _, t := range runs {
		if t.S == "" {
			continue
		}
		key := int(math.Round(t.Y / yTol))
		rows[key] = append(rows[key], t)
	}

	keys := make([]int, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	// PDF Y grows upward: larger keys sit higher on the page.
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	var lines []string
	for _, k := range keys {
		row := rows[k]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var line strings.Builder
		for i, t := range row {
			if i > 0 {
				prev := row[i-1]
				gap := t.X - (prev.X + prev.W)
				if gap > wordGap(prev.FontSize) && !strings.HasSuffix(line.String(), " ") {
					line.WriteByte(' ')
				}
			}
			line.WriteString(t.S)
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

func wordGap(fontSize float64) float64 {
	if g := 0.3 * fontSize; g > 1.0 {
		return g
	}
	return 1.0
}
