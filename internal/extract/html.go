package extract

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// block elements end a line of visible text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "pre": true,
	"ul": true, "ol": true, "hr": true, "title": true,
}

// skipped elements carry no document text
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"template": true, "nav": true,
}

// HTMLText returns the visible text of an HTML document. Block elements
// become line breaks and elements styled with a page break before them
// start a new page (form feed), so the result can be fed to a locator.
// When the page marks its main content (<main> or role="main") only that
// part is read.
func HTMLText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	root := contentRoot(doc)

	var out []byte
	last := func() byte {
		if len(out) == 0 {
			return 0
		}
		return out[len(out)-1]
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipElements[n.Data] {
				return
			}
			if pageBreakBefore(n) && len(out) > 0 {
				for last() == '\n' || last() == ' ' {
					out = out[:len(out)-1]
				}
				if last() != '\f' {
					out = append(out, '\f')
				}
			}
		}

		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if c := last(); c != 0 && c != '\n' && c != '\f' && c != ' ' {
					out = append(out, ' ')
				}
				out = append(out, text...)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			if c := last(); c != 0 && c != '\n' && c != '\f' {
				out = append(out, '\n')
			}
		}
	}

	walk(root)
	return strings.TrimRight(string(out), "\n\f "), nil
}

// contentRoot returns the first <main> or role="main" element, or doc
func contentRoot(doc *html.Node) *html.Node {
	var found *html.Node
	var find func(*html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "main" || attr(n, "role") == "main") {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	if find(doc) {
		return found
	}
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func pageBreakBefore(n *html.Node) bool {
	style := strings.ToLower(strings.ReplaceAll(attr(n, "style"), " ", ""))
	return strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page")
}
