package docload

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxXMLDepth bounds element nesting in office documents. Real files sit
// well under 30 levels; anything deeper is a crafted bomb.
const maxXMLDepth = 256

var errXMLDepth = errors.New("docload: xml nesting depth exceeded")

// loadDocx streams word/document.xml out of the archive and flattens its
// paragraphs. Text lives in w:t runs; w:tab and w:br become space and
// newline. The first Title or Heading1 paragraph doubles as the title.
func loadDocx(data []byte) (title, text string, err error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("docx open: %w", err)
	}
	rc, err := openArchiveFile(zr, "word/document.xml")
	if err != nil {
		return "", "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		blocks  []string
		current strings.Builder
		inPara  bool
		inText  bool
		style   string
		depth   int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("docx parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return "", "", errXMLDepth
			}
			switch t.Name.Local {
			case "p":
				inPara = true
				style = ""
				current.Reset()
			case "pStyle":
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						style = a.Value
					}
				}
			case "t":
				inText = true
			case "tab":
				if inPara {
					current.WriteByte(' ')
				}
			case "br":
				if inPara {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inPara && inText {
				current.Write(t)
			}
		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if para := strings.TrimSpace(current.String()); para != "" {
					if title == "" && (style == "Title" || style == "Heading1") {
						title = para
					}
					blocks = append(blocks, para)
				}
				inPara = false
			}
		}
	}

	text = strings.Join(blocks, "\n\n")
	if title == "" {
		title = firstLine(text)
	}
	return title, text, nil
}

func openArchiveFile(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("archive entry %q not found", name)
}
