package docload

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

const cleanParagraph = "The quick brown fox jumps over the lazy dog. It was a bright cold day, and the clocks were striking thirteen. Everyone walked home through the quiet streets."

const jammedParagraph = "thisisonelongjammedtokenwithoutanyspacesinit thisisonelongjammedtokenwithoutanyspacesinit thisisonelongjammedtokenwithoutanyspacesinit"

func fixedBackend(name, text string, err error) pdfBackend {
	return pdfBackend{name: name, run: func([]byte) (string, *pdfInfo, error) {
		if err != nil {
			return "", nil, err
		}
		return text, &pdfInfo{Pages: 1}, nil
	}}
}

type fakeOCR struct {
	output []byte
	err    error
	calls  int
}

func (f *fakeOCR) Available() bool { return true }

func (f *fakeOCR) Rebuild(ctx context.Context, pdf []byte) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func testLoader(backends ...pdfBackend) *Loader {
	l := New(Config{})
	l.backends = backends
	return l
}

func TestExtractPDF_PicksBestScore(t *testing.T) {
	l := testLoader(
		fixedBackend("a", jammedParagraph, nil),
		fixedBackend("b", cleanParagraph, nil),
	)
	text, ex, err := l.extractPDF(context.Background(), []byte("%PDF-fake"))
	if err != nil {
		t.Fatal(err)
	}
	if ex.Method != "b" {
		t.Errorf("Method = %q, want b (the higher-scoring backend)", ex.Method)
	}
	if text != cleanParagraph {
		t.Errorf("wrong winning text: %q", text)
	}
}

func TestExtractPDF_BackendFailureIgnored(t *testing.T) {
	// WHAT: One backend erroring must not abort the others.
	// WHY: Backends trade robustness for fidelity differently; a crash in
	// one is exactly when the other earns its keep.
	l := testLoader(
		fixedBackend("a", "", errors.New("parse blew up")),
		fixedBackend("b", cleanParagraph, nil),
	)
	_, ex, err := l.extractPDF(context.Background(), []byte("%PDF-fake"))
	if err != nil {
		t.Fatal(err)
	}
	if ex.Method != "b" {
		t.Errorf("Method = %q, want b", ex.Method)
	}
}

func TestExtractPDF_NoText(t *testing.T) {
	l := testLoader(
		fixedBackend("a", "", errors.New("nope")),
		fixedBackend("b", "   \n  ", nil),
	)
	_, _, err := l.extractPDF(context.Background(), []byte("%PDF-fake"))
	if !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText, got %v", err)
	}
}

func TestExtractPDF_OCRWinsByMargin(t *testing.T) {
	// The backend output depends on the input bytes, so the OCR rebuild
	// actually changes what gets extracted.
	swap := pdfBackend{name: "swap", run: func(data []byte) (string, *pdfInfo, error) {
		if bytes.HasPrefix(data, []byte("OCR")) {
			return cleanParagraph, &pdfInfo{Pages: 1}, nil
		}
		return jammedParagraph, &pdfInfo{Pages: 1}, nil
	}}
	ocr := &fakeOCR{output: []byte("OCR rebuilt bytes")}

	l := testLoader(swap)
	l.ocr = ocr

	text, ex, err := l.extractPDF(context.Background(), []byte("native bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if ocr.calls != 1 {
		t.Fatalf("Rebuild calls = %d, want 1", ocr.calls)
	}
	if !ex.OCR {
		t.Error("expected OCR result to win")
	}
	if text != cleanParagraph {
		t.Errorf("wrong winning text: %q", text)
	}
}

func TestExtractPDF_OCRKeptOnlyAboveMargin(t *testing.T) {
	// WHAT: An OCR rebuild that scores the same as native is discarded.
	// WHY: OCR introduces its own recognition errors; replacing decent
	// native text needs a clear improvement, not a coin flip.
	nativeText := "t he cat sat on t he mat w as it t hat day t his is t he end"
	same := fixedBackend("same", nativeText, nil)
	ocr := &fakeOCR{output: []byte("rebuilt")}

	l := testLoader(same)
	l.ocr = ocr

	text, ex, err := l.extractPDF(context.Background(), []byte("native"))
	if err != nil {
		t.Fatal(err)
	}
	if ocr.calls != 1 {
		t.Fatalf("Rebuild calls = %d, want 1 (weak native should trigger OCR)", ocr.calls)
	}
	if ex.OCR {
		t.Error("equal-scoring OCR result should not replace native text")
	}
	if text != nativeText {
		t.Errorf("native text should be kept, got %q", text)
	}
}

func TestExtractPDF_StrongNativeSkipsOCR(t *testing.T) {
	ocr := &fakeOCR{output: []byte("rebuilt")}
	l := testLoader(fixedBackend("good", cleanParagraph, nil))
	l.ocr = ocr

	_, ex, err := l.extractPDF(context.Background(), []byte("native"))
	if err != nil {
		t.Fatal(err)
	}
	if ocr.calls != 0 {
		t.Errorf("Rebuild calls = %d, want 0 for a strong native result", ocr.calls)
	}
	if ex.OCR {
		t.Error("OCR flag should be false")
	}
}

func TestExtractPDF_OCRFailureFallsBack(t *testing.T) {
	l := testLoader(fixedBackend("weak", "t he cat sat on t he mat w as it t hat day t his is t he end", nil))
	l.ocr = &fakeOCR{err: errors.New("ocr binary exploded")}

	text, ex, err := l.extractPDF(context.Background(), []byte("native"))
	if err != nil {
		t.Fatal(err)
	}
	if text == "" || ex.OCR {
		t.Error("native text should survive an OCR failure")
	}
}

func TestStreamText(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 708 Td\n(Hello ) Tj\n(world) Tj\nT*\n(Second line) Tj\nET")
	got := streamText(stream)
	if got != "Hello world\nSecond line" {
		t.Errorf("streamText = %q", got)
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, "plain"},
		{`with \(parens\)`, "with (parens)"},
		{`tab\there`, "tab\there"},
		{`octal \101`, "octal A"},
	}
	for _, tt := range tests {
		if got := decodePDFString(tt.in); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
