package scraper

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// selector matches an element by tag name or by class.
type selector struct {
	tag   string
	class string
}

// contentSelectors are tried in order; the first match supplies the content region.
var contentSelectors = []selector{
	{tag: "article"},
	{tag: "main"},
	{tag: "content"},
	{class: "post-content"},
	{class: "entry-content"},
	{class: "article-content"},
	{tag: "body"},
}

func (s selector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" {
		return n.Data == s.tag
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == s.class {
				return true
			}
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// skipped elements never contribute text.
func skipped(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

// text collects the visible text below n, one text node per line, with
// lines trimmed and blank lines dropped.
func text(n *html.Node) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipped(n) {
			return
		}
		if n.Type == html.TextNode {
			for _, line := range strings.Split(n.Data, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(lines, "\n")
}

// extract returns the page title and its readable text.
func extract(doc *html.Node) (title, body string) {
	if t := findFirst(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == atom.Title }); t != nil {
		title = strings.Join(strings.Fields(text(t)), " ")
	}

	for _, sel := range contentSelectors {
		if n := findFirst(doc, sel.matches); n != nil {
			if body = text(n); body != "" {
				return title, body
			}
		}
	}
	return title, text(doc)
}
