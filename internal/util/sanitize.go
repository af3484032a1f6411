package util

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanText reduces HTML markup in free text to its visible content.
// Ticket feeds routinely carry pasted rich text; classification and length
// validation both want the words, not the tags. Plain text passes through
// with surrounding whitespace trimmed.
func CleanText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// The parser is tolerant; a hard failure means the input is not
		// meaningfully HTML. Return it trimmed rather than dropping it.
		return strings.TrimSpace(s)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip content that is never visible to the reader
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return buf.String()
}
