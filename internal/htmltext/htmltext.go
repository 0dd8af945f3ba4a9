// Package htmltext renders an HTML page dump as readable plain text, so an
// operator tuning selectors can inspect what the page actually said without
// wading through markup.
package htmltext

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Render extracts the visible text of an HTML document, one block element per
// line, with whitespace runs collapsed. Malformed input yields whatever could
// be parsed, never an error.
func Render(input []byte) string {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return ""
	}
	var b strings.Builder
	collect(&b, node)
	return tidy(b.String())
}

func collect(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "head":
			return
		case "br", "hr", "p", "div", "li", "label", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(b, c)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "div", "li", "label", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
			b.WriteString("\n")
		}
	}
}

// tidy collapses intra-line whitespace and drops runs of blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		collapsed := strings.Join(strings.Fields(line), " ")
		if collapsed == "" {
			continue
		}
		out = append(out, collapsed)
	}
	return strings.Join(out, "\n")
}
