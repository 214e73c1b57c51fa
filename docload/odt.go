package docload

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// loadODT streams content.xml out of the OpenDocument archive. text:p
// and text:h elements carry character data directly; text:s and text:tab
// are explicit whitespace. The first text:h becomes the title.
func loadODT(data []byte) (title, text string, err error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("odt open: %w", err)
	}
	rc, err := openArchiveFile(zr, "content.xml")
	if err != nil {
		return "", "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		blocks    []string
		current   strings.Builder
		depth     int
		elemDepth int
		isHeading bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("odt parse: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			elemDepth++
			if elemDepth > maxXMLDepth {
				return "", "", errXMLDepth
			}
			switch t.Name.Local {
			case "p", "h":
				if depth == 0 {
					current.Reset()
					isHeading = t.Name.Local == "h"
				}
				depth++
			case "s":
				if depth > 0 {
					current.WriteByte(' ')
				}
			case "tab":
				if depth > 0 {
					current.WriteByte(' ')
				}
			case "line-break":
				if depth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if depth > 0 {
				current.Write(t)
			}
		case xml.EndElement:
			elemDepth--
			if t.Name.Local == "p" || t.Name.Local == "h" {
				depth--
				if depth == 0 {
					if para := strings.TrimSpace(current.String()); para != "" {
						if title == "" && isHeading {
							title = para
						}
						blocks = append(blocks, para)
					}
				}
			}
		}
	}

	text = strings.Join(blocks, "\n\n")
	if title == "" {
		title = firstLine(text)
	}
	return title, text, nil
}
