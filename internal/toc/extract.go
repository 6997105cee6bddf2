// Package toc builds the "on this page" navigation for an article and
// tracks which section the reader is looking at.
//
// Extraction works on the rendered page: only h2/h3 headings inside the
// main region with a non-empty id qualify, and h3 headings that label
// individual code examples are left out.
package toc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CodeExamplesMarker identifies the section whose h3 children are
// per-example labels rather than navigable sections.
const CodeExamplesMarker = "code-examples"

// Heading is one navigable section heading of the rendered page.
type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// ExtractHTML parses r and extracts its headings.
func ExtractHTML(r io.Reader) ([]Heading, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return Extract(doc), nil
}

// Extract returns the qualifying headings of doc in document order. A
// document without a main region, or without qualifying headings, yields
// an empty result.
func Extract(doc *html.Node) []Heading {
	region := findMain(doc)
	if region == nil {
		return nil
	}

	var (
		out            []Heading
		inCodeExamples bool
		visit          func(n *html.Node)
	)

	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H2:
				inCodeExamples = isCodeExamplesMarker(n)
				if h, ok := heading(n, 2); ok {
					out = append(out, h)
				}
				return
			case atom.H3:
				if inCodeExamples || underCodeExamples(n, region) {
					return
				}
				if h, ok := heading(n, 3); ok {
					out = append(out, h)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	for c := region.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
	return out
}

func heading(n *html.Node, level int) (Heading, bool) {
	id := strings.TrimSpace(attr(n, "id"))
	if id == "" {
		return Heading{}, false
	}
	return Heading{ID: id, Text: textContent(n), Level: level}, true
}

func findMain(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Main || attr(n, "role") == "main" {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMain(c); found != nil {
			return found
		}
	}
	return nil
}

func isCodeExamplesMarker(n *html.Node) bool {
	return attr(n, "id") == CodeExamplesMarker || attr(n, "data-toc") == CodeExamplesMarker
}

// underCodeExamples catches h3s wrapped in a marked container even when
// no marked h2 precedes them.
func underCodeExamples(n, stop *html.Node) bool {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if p.Type == html.ElementNode && isCodeExamplesMarker(p) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case html.ElementNode:
			if attr(n, "aria-hidden") == "true" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
