// Package dom provides a mutex-guarded HTML document built on
// golang.org/x/net/html and element handles for the player page.
package dom

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/fanmade/nowplaying/internal/apperr"
)

// PlaceholderTag is the element name of icon placeholders.
const PlaceholderTag = "svgload"

// Document is a parsed HTML page. All reads and mutations of the tree go
// through the Document so they are serialized.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// Parse parses an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, apperr.Parse(err, "failed to parse document")
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML page held in s.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the current document tree as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the document, returning "" on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// ByID returns the element with the given id attribute, or nil.
func (d *Document) ByID(id string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
	if n == nil {
		return nil
	}
	return &Element{doc: d, node: n}
}

// QueryClass returns all elements under scope carrying class cls, in
// document order. A nil scope searches the whole document.
func (d *Document) QueryClass(scope *Element, cls string) []*Element {
	return d.query(scope, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, cls)
	})
}

// QueryTag returns all elements under scope with the given tag name.
func (d *Document) QueryTag(scope *Element, tag string) []*Element {
	tag = strings.ToLower(tag)
	return d.query(scope, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	})
}

// Placeholders returns all icon placeholders under scope.
func (d *Document) Placeholders(scope *Element) []*Element {
	return d.QueryTag(scope, PlaceholderTag)
}

// CountPlaceholders returns how many placeholders remain under scope.
func (d *Document) CountPlaceholders(scope *Element) int {
	return len(d.Placeholders(scope))
}

// ReplaceWithMarkup parses markup as a fragment, moves every class of el onto
// the first element of the fragment, and puts that element in place of el.
// It returns a handle on the inserted element.
func (d *Document) ReplaceWithMarkup(el *Element, markup string) (*Element, error) {
	if el == nil {
		return nil, errors.New("nil placeholder")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	parent := el.node.Parent
	if parent == nil {
		return nil, errors.Newf("placeholder <%s> is detached", el.node.Data)
	}

	ctxNode := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctxNode)
	if err != nil {
		return nil, apperr.Parse(err, "failed to parse markup")
	}

	var replacement *html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Data == "svg" {
			replacement = n
			break
		}
	}
	if replacement == nil {
		return nil, errors.Mark(errors.New("markup has no <svg> root"), apperr.ErrParse)
	}

	for _, cls := range classes(el.node) {
		addClass(replacement, cls)
	}

	parent.InsertBefore(replacement, el.node)
	parent.RemoveChild(el.node)
	return &Element{doc: d, node: replacement}, nil
}

func (d *Document) query(scope *Element, match func(*html.Node) bool) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := d.root
	if scope != nil {
		start = scope.node
	}

	var out []*Element
	walk(start, func(n *html.Node) {
		if n != start && match(n) {
			out = append(out, &Element{doc: d, node: n})
		}
	})
	return out
}

// walk visits n and all of its descendants in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
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
