package docload

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
	}{
		{"doc.docx", KindDocx},
		{"doc.odt", KindODT},
		{"doc.pdf", KindPDF},
		{"doc.md", KindMD},
		{"doc.markdown", KindMD},
		{"doc.txt", KindTXT},
		{"doc.html", KindHTML},
		{"doc.htm", KindHTML},
	}
	for _, tt := range tests {
		k, err := Detect(tt.name, nil)
		if err != nil {
			t.Errorf("Detect(%q): %v", tt.name, err)
			continue
		}
		if k != tt.kind {
			t.Errorf("Detect(%q) = %q, want %q", tt.name, k, tt.kind)
		}
	}

	// Unknown extension with nothing to sniff.
	if _, err := Detect("file.xyz", nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}

	// Extensionless uploads fall back to magic bytes.
	if k, err := Detect("upload", []byte("%PDF-1.7\nstuff")); err != nil || k != KindPDF {
		t.Errorf("sniff pdf = %q, %v", k, err)
	}
	if k, err := Detect("page", []byte("<!DOCTYPE html><html></html>")); err != nil || k != KindHTML {
		t.Errorf("sniff html = %q, %v", k, err)
	}
}

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("Hello world.\r\nSecond line here."), 0644)

	doc, err := New(Config{}).Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Kind != KindTXT {
		t.Fatalf("Kind = %q, want txt", doc.Kind)
	}
	if strings.Contains(doc.Text, "\r") {
		t.Error("line endings should be normalized")
	}
	if doc.Title != "Hello world." {
		t.Errorf("Title = %q", doc.Title)
	}
}

func TestLoadText_Latin1(t *testing.T) {
	// WHAT: Non-UTF-8 input decodes through the Latin-1 fallback.
	// WHY: Old ebook dumps are frequently Latin-1; rejecting them loses books.
	data := []byte("Un caf\xe9 bien serr\xe9 et une longue soir\xe9e de lecture.")

	doc, err := New(Config{}).LoadBytes(context.Background(), "vieux.txt", data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.Text, "café") {
		t.Errorf("expected Latin-1 bytes decoded, got %q", doc.Text)
	}
}

func TestLoadMarkdown(t *testing.T) {
	content := `# My Title

This is a paragraph with a [useful link](https://example.test/x) inside,
wrapped over two lines.

## Section Two

Another *emphasized* paragraph here.
`
	doc, err := New(Config{}).LoadBytes(context.Background(), "test.md", []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "My Title" {
		t.Errorf("Title = %q, want 'My Title'", doc.Title)
	}
	if !strings.Contains(doc.Text, "useful link") {
		t.Errorf("link text should survive, got %q", doc.Text)
	}
	if strings.Contains(doc.Text, "example.test") {
		t.Error("link URL should be stripped")
	}
	if strings.Contains(doc.Text, "*") {
		t.Error("emphasis markers should be stripped")
	}
	if !strings.Contains(doc.Text, "paragraph with a useful link inside, wrapped over two lines.") {
		t.Errorf("wrapped paragraph should be joined, got %q", doc.Text)
	}
}

func TestLoadDocx(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Test Title</w:t></w:r></w:p>
<w:p><w:r><w:t>This is body text.</w:t></w:r></w:p>
<w:p><w:r><w:t>More content here.</w:t></w:r></w:p>
</w:body>
</w:document>`
	fw, _ := w.Create("word/document.xml")
	fw.Write([]byte(docXML))
	w.Close()

	doc, err := New(Config{}).LoadBytes(context.Background(), "test.docx", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Test Title" {
		t.Errorf("Title = %q, want 'Test Title'", doc.Title)
	}
	if !strings.Contains(doc.Text, "This is body text.") {
		t.Errorf("body text missing: %q", doc.Text)
	}
}

func TestLoadODT(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	contentXML := `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body>
<office:text>
<text:h text:outline-level="1">ODT Title</text:h>
<text:p>First paragraph.</text:p>
<text:p>Second<text:s/>paragraph.</text:p>
</office:text>
</office:body>
</office:document-content>`
	fw, _ := w.Create("content.xml")
	fw.Write([]byte(contentXML))
	w.Close()

	doc, err := New(Config{}).LoadBytes(context.Background(), "test.odt", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "ODT Title" {
		t.Errorf("Title = %q, want 'ODT Title'", doc.Title)
	}
	if !strings.Contains(doc.Text, "Second paragraph.") {
		t.Errorf("text:s should become a space: %q", doc.Text)
	}
}

func TestLoadHTML(t *testing.T) {
	html := `<!DOCTYPE html>
<html><head><title>HTML Test</title><script>alert("nope")</script></head>
<body>
<h1>Main Heading</h1>
<p>This is a substantial paragraph of narration text that should come through
the conversion intact.</p>
</body></html>`

	doc, err := New(Config{}).LoadBytes(context.Background(), "test.html", []byte(html))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "HTML Test" {
		t.Errorf("Title = %q, want 'HTML Test'", doc.Title)
	}
	if !strings.Contains(doc.Text, "substantial paragraph") {
		t.Errorf("paragraph missing: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "alert(") {
		t.Error("script content should be sanitized away")
	}
}

func TestLoadBytes_TooLarge(t *testing.T) {
	l := New(Config{MaxFileSize: 10})
	_, err := l.LoadBytes(context.Background(), "big.txt", []byte("this is more than ten bytes"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestDocxXMLBomb(t *testing.T) {
	// WHAT: Deeply nested document.xml is rejected with a depth error.
	// WHY: XML bomb defense; honest files never nest hundreds of levels.
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	var xmlB strings.Builder
	xmlB.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	xmlB.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for i := 0; i < 300; i++ {
		xmlB.WriteString("<w:p>")
	}
	xmlB.WriteString("<w:r><w:t>deep</w:t></w:r>")
	for i := 0; i < 300; i++ {
		xmlB.WriteString("</w:p>")
	}
	xmlB.WriteString("</w:body></w:document>")
	fw, _ := w.Create("word/document.xml")
	fw.Write([]byte(xmlB.String()))
	w.Close()

	_, _, err := loadDocx(buf.Bytes())
	if err == nil {
		t.Fatal("expected error for deeply nested XML")
	}
	if !strings.Contains(err.Error(), "nesting depth") {
		t.Errorf("expected nesting depth error, got: %v", err)
	}
}

func TestSupportedKinds(t *testing.T) {
	kinds := SupportedKinds()
	if len(kinds) != 6 {
		t.Fatalf("expected 6 kinds, got %d: %v", len(kinds), kinds)
	}
}
