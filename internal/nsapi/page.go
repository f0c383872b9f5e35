package nsapi

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Page is a parsed site response.
type Page struct {
	root *html.Node
}

// ParsePage parses an HTML document.
func ParsePage(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("nsapi: parse page: %w", err)
	}
	return &Page{root: root}, nil
}

// InputValue returns the value attribute of the first element whose name
// attribute equals name.
func (p *Page) InputValue(name string) (string, bool) {
	n := p.find(func(n *html.Node) bool {
		v, ok := attr(n, "name")
		return ok && v == name
	})
	if n == nil {
		return "", false
	}
	return attr(n, "value")
}

// HasClass reports whether any element carries the given class.
func (p *Page) HasClass(class string) bool {
	return p.find(classMatcher(class)) != nil
}

// ClassText returns the text content of the first element carrying class.
func (p *Page) ClassText(class string) (string, bool) {
	n := p.find(classMatcher(class))
	if n == nil {
		return "", false
	}
	var b strings.Builder
	collectText(n, &b)
	return strings.TrimSpace(b.String()), true
}

func (p *Page) find(match func(*html.Node) bool) *html.Node {
	var walk func(*html.Node) *html.Node
	walk = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && match(n) {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(p.root)
}

func classMatcher(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attr(n, "class")
		if !ok {
			return false
		}
		for _, c := range strings.Fields(v) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
