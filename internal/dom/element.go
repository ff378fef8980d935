package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Element is a handle to one element node of a Document. Two handles are the same
// element when Equal reports true.
type Element struct {
	node *html.Node
	doc  *Document
}

// Node exposes the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Equal reports whether both handles point at the same node.
func (e *Element) Equal(other *Element) bool {
	if e == nil || other == nil {
		return e == nil && other == nil
	}

	return e.node == other.node
}

// Tag returns the lower-cased tag name.
func (e *Element) Tag() string {
	return strings.ToLower(e.node.Data)
}

func (e *Element) ID() string   { return e.AttrOr("id", "") }
func (e *Element) Name() string { return e.AttrOr("name", "") }

// Attr returns the attribute value and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}

	return "", false
}

// AttrOr returns the attribute value or def when it is absent.
func (e *Element) AttrOr(key, def string) string {
	if v, ok := e.Attr(key); ok {
		return v
	}

	return def
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(key string) bool {
	_, ok := e.Attr(key)
	return ok
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(key, val string) {
	key = strings.ToLower(key)
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}

	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	attrs := make([]html.Attribute, 0, len(e.node.Attr))
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		attrs = append(attrs, a)
	}

	e.node.Attr = attrs
}

// HasClass reports whether the class list contains class.
func (e *Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.AttrOr("class", "")) {
		if c == class {
			return true
		}
	}

	return false
}

// Text returns the trimmed text content of the element and its descendants.
func (e *Element) Text() string {
	return strings.TrimSpace(e.selection().Text())
}

// Parent returns the parent element or nil.
func (e *Element) Parent() *Element {
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return e.doc.node(p)
		}
	}

	return nil
}

// Closest returns the nearest inclusive ancestor for which match is true.
func (e *Element) Closest(match func(*Element) bool) *Element {
	for cur := e; cur != nil; cur = cur.Parent() {
		if match(cur) {
			return cur
		}
	}

	return nil
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	if other == nil {
		return false
	}
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}

	return false
}

// QuerySelector returns the first descendant matching sel. A selector that cannot be
// compiled yields a *SelectorError.
func (e *Element) QuerySelector(sel string) (*Element, error) {
	m, err := compile(sel)
	if err != nil {
		return nil, err
	}

	return e.doc.wrap(e.selection().FindMatcher(m).First()), nil
}

// QuerySelectorAll returns all descendants matching sel in document order.
func (e *Element) QuerySelectorAll(sel string) ([]*Element, error) {
	m, err := compile(sel)
	if err != nil {
		return nil, err
	}

	return e.doc.wrapAll(e.selection().FindMatcher(m)), nil
}

// Descendants returns the descendant elements whose tag is one of tags, in document
// order, without going through the selector engine.
func (e *Element) Descendants(tags ...string) []*Element {
	var result []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if n.Type != html.ElementNode {
				return true
			}
			tag := strings.ToLower(n.Data)
			for _, t := range tags {
				if tag == t {
					result = append(result, e.doc.node(n))
					break
				}
			}
			return true
		})
	}

	return result
}

// AppendChild attaches child as the last child of e, detaching it first if needed.
func (e *Element) AppendChild(child *Element) {
	if child.node.Parent != nil {
		child.node.Parent.RemoveChild(child.node)
	}
	e.node.AppendChild(child.node)
}

// SetText replaces all children with a single text node.
func (e *Element) SetText(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// Attached reports whether the element is still part of the document tree.
func (e *Element) Attached() bool {
	root := e.doc.root()
	for n := e.node; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}

	return false
}

// Describe returns a short human readable tag#id[name] string for logs and errors.
func (e *Element) Describe() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString(e.Tag())
	if id := e.ID(); id != "" {
		b.WriteString("#")
		b.WriteString(id)
	}
	if name := e.Name(); name != "" {
		b.WriteString("[name=")
		b.WriteString(name)
		b.WriteString("]")
	}

	return b.String()
}

func (e *Element) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.node).Selection
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}

	return ""
}
