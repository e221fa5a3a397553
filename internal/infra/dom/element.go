package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a handle on one node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

// Tag returns the element name.
func (e *Element) Tag() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.node.Data
}

// Attr returns the value of attribute key, or "".
func (e *Element) Attr(key string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return attr(e.node, key)
}

// SetAttr sets attribute key to value.
func (e *Element) SetAttr(key, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, key, value)
}

// Data returns the value of the data-<key> attribute.
func (e *Element) Data(key string) string {
	return e.Attr("data-" + key)
}

// Text returns the concatenated text content of the element.
func (e *Element) Text() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var b strings.Builder
	walk(e.node, func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	})
	return b.String()
}

// SetText replaces all children of the element with a single text node.
func (e *Element) SetText(text string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Classes returns the element's classes in attribute order.
func (e *Element) Classes() []string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return classes(e.node)
}

// HasClass reports whether the element carries cls.
func (e *Element) HasClass(cls string) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return hasClass(e.node, cls)
}

// AddClass adds cls if not present.
func (e *Element) AddClass(cls string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	addClass(e.node, cls)
}

// RemoveClass removes cls if present.
func (e *Element) RemoveClass(cls string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeClass(e.node, cls)
}

// ToggleClass adds cls when on is true and removes it otherwise.
func (e *Element) ToggleClass(cls string, on bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if on {
		addClass(e.node, cls)
	} else {
		removeClass(e.node, cls)
	}
}

// SetStyle sets one inline style property, replacing any previous value.
func (e *Element) SetStyle(property, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var decls []string
	for _, decl := range strings.Split(attr(e.node, "style"), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if strings.TrimSpace(name) == property {
			continue
		}
		decls = append(decls, decl)
	}
	decls = append(decls, property+": "+value)
	setAttr(e.node, "style", strings.Join(decls, "; "))
}

// Style returns the value of one inline style property, or "".
func (e *Element) Style(property string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	for _, decl := range strings.Split(attr(e.node, "style"), ";") {
		name, value, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(name) == property {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func classes(n *html.Node) []string {
	return strings.Fields(attr(n, "class"))
}

func hasClass(n *html.Node, cls string) bool {
	for _, c := range classes(n) {
		if c == cls {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, cls string) {
	if cls == "" || hasClass(n, cls) {
		return
	}
	setAttr(n, "class", strings.TrimSpace(attr(n, "class")+" "+cls))
}

func removeClass(n *html.Node, cls string) {
	if !hasClass(n, cls) {
		return
	}
	kept := make([]string, 0)
	for _, c := range classes(n) {
		if c != cls {
			kept = append(kept, c)
		}
	}
	setAttr(n, "class", strings.Join(kept, " "))
}
