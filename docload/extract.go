package docload

import (
	"context"
	"strings"
)

// Extraction records how a PDF's text was obtained.
type Extraction struct {
	// Method is the winning backend ("pdfcpu" or "lpdf").
	Method string `json:"method"`

	// Score is the quality score of the winning text, in [0,1].
	Score float64 `json:"score"`

	// OCR reports whether the text came from an OCR rebuild.
	OCR bool `json:"ocr"`

	Pages int `json:"pages"`
}

// ocrTrigger is the native score below which an OCR pass is worth trying.
const ocrTrigger = 0.60

type pdfBackend struct {
	name string
	run  func(data []byte) (string, *pdfInfo, error)
}

var pdfBackends = []pdfBackend{
	{"pdfcpu", extractWithPDFCPU},
	{"lpdf", extractWithLPDF},
}

type candidate struct {
	method string
	text   string
	score  float64
	info   *pdfInfo
}

// extractPDF runs every backend over the raw bytes, scores the results
// and keeps the best. When the native winner looks weak or scanned and an
// OCR engine is present, the document is rebuilt and re-extracted; the
// OCR result replaces the native one only when its score clears the
// configured margin. A backend failure never aborts the others.
func (l *Loader) extractPDF(ctx context.Context, data []byte) (string, *Extraction, error) {
	native := l.runBackends(data)
	best := bestCandidate(native)
	usedOCR := false

	if l.ocr != nil && l.ocr.Available() && (best == nil || best.score < ocrTrigger || looksScanned(native)) {
		if ocrBest := l.tryOCR(ctx, data); ocrBest != nil {
			if best == nil || ocrBest.score > best.score*(1+l.cfg.OCRMargin) {
				l.logger.Info("ocr rebuild won",
					"ocr_score", ocrBest.score,
					"native_score", candidateScore(best))
				best = ocrBest
				usedOCR = true
			} else {
				l.logger.Debug("ocr rebuild discarded",
					"ocr_score", ocrBest.score,
					"native_score", candidateScore(best))
			}
		}
	}

	if best == nil {
		return "", nil, ErrNoText
	}

	ex := &Extraction{
		Method: best.method,
		Score:  best.score,
		OCR:    usedOCR,
	}
	if best.info != nil {
		ex.Pages = best.info.Pages
	}
	return best.text, ex, nil
}

func (l *Loader) runBackends(data []byte) []candidate {
	var out []candidate
	for _, b := range l.backends {
		text, info, err := b.run(data)
		if err != nil {
			l.logger.Debug("pdf backend failed", "backend", b.name, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			l.logger.Debug("pdf backend empty", "backend", b.name)
			continue
		}
		c := candidate{method: b.name, text: text, score: Score(text), info: info}
		l.logger.Debug("pdf backend scored", "backend", b.name, "score", c.score, "chars", len(text))
		out = append(out, c)
	}
	return out
}

func (l *Loader) tryOCR(ctx context.Context, data []byte) *candidate {
	rebuilt, err := l.ocr.Rebuild(ctx, data)
	if err != nil {
		l.logger.Warn("ocr rebuild failed", "error", err)
		return nil
	}
	best := bestCandidate(l.runBackends(rebuilt))
	return best
}

// bestCandidate picks the highest score; ties keep backend order.
func bestCandidate(cands []candidate) *candidate {
	var best *candidate
	for i := range cands {
		if best == nil || cands[i].score > best.score {
			best = &cands[i]
		}
	}
	return best
}

func candidateScore(c *candidate) float64 {
	if c == nil {
		return 0
	}
	return c.score
}

// looksScanned flags documents whose text layer is too thin for their
// page count while image streams are present, or whose tokens mostly do
// not look like words. Both are classic scanned-PDF signatures.
func looksScanned(cands []candidate) bool {
	for _, c := range cands {
		if c.info != nil && c.info.Pages > 0 {
			charsPerPage := float64(len(c.text)) / float64(c.info.Pages)
			if charsPerPage < 50 && c.info.HasImages {
				return true
			}
		}
		if wordlikeRatio(c.text) < 0.4 {
			return true
		}
	}
	return false
}
