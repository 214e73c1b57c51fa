// Package docload turns document files into plain text suitable for the
// narration pipeline.
//
// Supported kinds:
//   - .txt: plain text (UTF-8, Latin-1 fallback)
//   - .md: Markdown (headings flattened into the text flow)
//   - .html: HTML (sanitized, converted via markdown as intermediate)
//   - .docx: Microsoft Word (word/document.xml from the zip archive)
//   - .odt: OpenDocument Text (content.xml from the zip archive)
//   - .pdf: multi-backend text extraction with quality scoring and
//     optional OCR rebuild (see extract.go)
//
// PDF output joins pages with form-feed markers so page-aware cleaning
// downstream can tell where pages begin and end.
package docload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies a supported input document type.
type Kind string

const (
	KindTXT  Kind = "txt"
	KindMD   Kind = "md"
	KindHTML Kind = "html"
	KindDocx Kind = "docx"
	KindODT  Kind = "odt"
	KindPDF  Kind = "pdf"
)

// PageBreak separates pages in extracted PDF text.
const PageBreak = "\f"

var (
	// ErrUnsupported means the file extension (and content sniff) matched no known kind.
	ErrUnsupported = errors.New("docload: unsupported document kind")

	// ErrTooLarge means the input exceeds Config.MaxFileSize.
	ErrTooLarge = errors.New("docload: file too large")

	// ErrNoText means every extraction backend failed or produced empty text.
	ErrNoText = errors.New("docload: no text content found")
)

// Document is the result of loading one input file.
type Document struct {
	Path  string `json:"path,omitempty"`
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`

	// Text is the extracted raw text. For PDFs, pages are joined with
	// PageBreak markers; other kinds carry their natural line structure.
	Text string `json:"text"`

	// Extraction describes how PDF text was obtained (nil for non-PDF kinds).
	Extraction *Extraction `json:"extraction,omitempty"`
}

// Loader loads and extracts documents.
type Loader struct {
	cfg      Config
	ocr      OCR
	logger   *slog.Logger
	backends []pdfBackend
}

// New creates a Loader with the given configuration.
func New(cfg Config) *Loader {
	cfg.defaults()
	return &Loader{
		cfg:      cfg,
		ocr:      cfg.OCR,
		logger:   cfg.Logger,
		backends: pdfBackends,
	}
}

// Detect returns the document kind for a file name, using the extension
// first and falling back to content sniffing when data is provided.
func Detect(name string, data []byte) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return KindTXT, nil
	case ".md", ".markdown":
		return KindMD, nil
	case ".html", ".htm":
		return KindHTML, nil
	case ".docx":
		return KindDocx, nil
	case ".odt":
		return KindODT, nil
	case ".pdf":
		return KindPDF, nil
	}
	if k, ok := sniffKind(data); ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// sniffKind guesses the kind from magic bytes for extensionless uploads.
func sniffKind(data []byte) (Kind, bool) {
	if len(data) == 0 {
		return "", false
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return KindPDF, true
	}
	head := bytes.ToLower(bytes.TrimSpace(data[:min(len(data), 256)]))
	if bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html")) {
		return KindHTML, true
	}
	return "", false
}

// Load reads a file from disk and extracts its text.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > l.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), l.cfg.MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := l.LoadBytes(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// LoadBytes extracts text from an in-memory document (e.g. an HTTP upload).
// The name is used for kind detection only.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*Document, error) {
	if int64(len(data)) > l.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), l.cfg.MaxFileSize)
	}

	kind, err := Detect(name, data)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loading document", "name", name, "kind", kind, "bytes", len(data))

	var (
		title string
		text  string
		ex    *Extraction
	)

	switch kind {
	case KindTXT:
		title, text = loadText(data)
	case KindMD:
		title, text = loadMarkdown(data)
	case KindHTML:
		title, text, err = loadHTML(data)
	case KindDocx:
		title, text, err = loadDocx(data)
	case KindODT:
		title, text, err = loadODT(data)
	case KindPDF:
		text, ex, err = l.extractPDF(ctx, data)
		if err == nil {
			title = firstLine(text)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s (%s): %w", name, kind, err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("load %s: %w", name, ErrNoText)
	}

	return &Document{
		Kind:       kind,
		Title:      title,
		Text:       text,
		Extraction: ex,
	}, nil
}

// SupportedKinds returns all kinds the loader accepts.
func SupportedKinds() []string {
	return []string{"txt", "md", "html", "docx", "odt", "pdf"}
}

func firstLine(text string) string {
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\f' }) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 200 {
			line = line[:200]
		}
		return line
	}
	return ""
}
