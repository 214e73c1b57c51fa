package docload

import (
	"fmt"
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// loadHTML turns an HTML page into narration text. The page is sanitized
// first (scripts, styles and event handlers gone), converted to Markdown
// to keep block structure, then flattened through the Markdown path.
func loadHTML(data []byte) (title, text string, err error) {
	src := decodeText(data)
	title = htmlTitle(src)

	safe := bluemonday.UGCPolicy().Sanitize(src)

	conv := htmlmd.NewConverter(htmlmd.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	))
	md, err := conv.ConvertString(safe)
	if err != nil {
		return "", "", fmt.Errorf("html convert: %w", err)
	}

	mdTitle, flat := loadMarkdown([]byte(md))
	if title == "" {
		title = mdTitle
	}
	return title, flat, nil
}

// htmlTitle extracts the <title> element, if any.
func htmlTitle(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title = strings.TrimSpace(collectNodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func collectNodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		sb.WriteString(collectNodeText(c))
	}
	return sb.String()
}
