package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page that can be queried and mutated the way a content
// script queries and mutates the browser DOM.
type Document struct {
	doc *goquery.Document
	url string

	listeners  []registeredListener
	nextHandle ListenerHandle
}

// Parse reads an HTML page. The url is informational and reported in captured snapshots.
func Parse(r io.Reader, url string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &Document{doc: doc, url: url}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(src, url string) (*Document, error) {
	return Parse(strings.NewReader(src), url)
}

// URL returns the address the document was loaded from.
func (d *Document) URL() string {
	return d.url
}

// Title returns the trimmed text of the first <title> element.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *Element {
	return d.wrap(d.doc.Find("html").First())
}

// Body returns the <body> element or nil.
func (d *Document) Body() *Element {
	return d.wrap(d.doc.Find("body").First())
}

// Forms returns every <form> element in document order.
func (d *Document) Forms() []*Element {
	return d.wrapAll(d.doc.Find("form"))
}

// GetElementByID returns the first element whose id attribute equals id. No selector is
// built, so ids with special characters are safe.
func (d *Document) GetElementByID(id string) *Element {
	if id == "" {
		return nil
	}

	var found *html.Node
	walk(d.root(), func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})

	return d.node(found)
}

// GetElementsByName returns all elements whose name attribute equals name.
func (d *Document) GetElementsByName(name string) []*Element {
	if name == "" {
		return nil
	}

	var result []*Element
	walk(d.root(), func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "name") == name {
			result = append(result, d.node(n))
		}
		return true
	})

	return result
}

// QuerySelector returns the first element in the document matching sel.
func (d *Document) QuerySelector(sel string) (*Element, error) {
	return d.DocumentElement().QuerySelector(sel)
}

// QuerySelectorAll returns all elements in the document matching sel.
func (d *Document) QuerySelectorAll(sel string) ([]*Element, error) {
	m, err := compile(sel)
	if err != nil {
		return nil, err
	}

	return d.wrapAll(d.doc.FindMatcher(m)), nil
}

// CreateElement returns a new detached element owned by the document.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}

	return d.node(n)
}

// Render writes the current state of the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root())
}

// HTML returns the rendered document.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (d *Document) root() *html.Node {
	return d.doc.Selection.Nodes[0]
}

func (d *Document) node(n *html.Node) *Element {
	if n == nil {
		return nil
	}

	return &Element{node: n, doc: d}
}

func (d *Document) wrap(s *goquery.Selection) *Element {
	if s == nil || s.Length() == 0 {
		return nil
	}

	return d.node(s.Nodes[0])
}

func (d *Document) wrapAll(s *goquery.Selection) []*Element {
	if s == nil {
		return nil
	}

	result := make([]*Element, 0, s.Length())
	for _, n := range s.Nodes {
		result = append(result, d.node(n))
	}

	return result
}

// walk visits n and its descendants in document order until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}

	return true
}
