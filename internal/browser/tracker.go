package browser

import (
	"fmt"

	"github.com/spigell/autofiller/internal/dom"
)

// Change describes one control edited in the offline document, addressed so the
// live page can locate the same control: the index-th match of Selector.
type Change struct {
	Selector      string `json:"selector"`
	Index         int    `json:"index"`
	Kind          string `json:"kind"`
	Value         string `json:"value"`
	Checked       bool   `json:"checked"`
	SelectedIndex int    `json:"selectedIndex"`
}

// Tracker records the controls a fill pass changed by listening to the change
// events the binder dispatches.
type Tracker struct {
	doc     *dom.Document
	handle  dom.ListenerHandle
	touched []*dom.Element
}

// Track starts recording changes on doc.
func Track(doc *dom.Document) *Tracker {
	t := &Tracker{doc: doc}
	t.handle = doc.AddEventListener(dom.EventChange, t.record)

	return t
}

func (t *Tracker) record(ev *dom.Event) {
	if ev.Target == nil {
		return
	}
	for _, el := range t.touched {
		if el.Equal(ev.Target) {
			return
		}
	}
	t.touched = append(t.touched, ev.Target)
}

// Stop unregisters the listener. Recorded changes stay available.
func (t *Tracker) Stop() {
	t.doc.RemoveEventListener(t.handle)
}

// Changes returns the recorded edits in the order they happened.
func (t *Tracker) Changes() ([]Change, error) {
	changes := make([]Change, 0, len(t.touched))
	for _, el := range t.touched {
		c, err := changeFor(t.doc, el)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}

	return changes, nil
}

func changeFor(doc *dom.Document, el *dom.Element) (Change, error) {
	sel := selectorFor(el)
	matches, err := doc.QuerySelectorAll(sel)
	if err != nil {
		return Change{}, fmt.Errorf("address %s: %w", el.Describe(), err)
	}

	c := Change{Selector: sel, Index: -1, Kind: el.Type()}
	for i, m := range matches {
		if m.Equal(el) {
			c.Index = i
			break
		}
	}
	if c.Index < 0 {
		return Change{}, fmt.Errorf("address %s: element not reachable by %q", el.Describe(), sel)
	}

	switch c.Kind {
	case "checkbox", "radio":
		c.Checked = el.Checked()
	case "select":
		c.SelectedIndex = -1
		for i, o := range el.Options() {
			if o.Selected {
				c.SelectedIndex = i
				break
			}
		}
	default:
		c.Value = el.Value()
	}

	return c, nil
}

func selectorFor(el *dom.Element) string {
	if id := el.ID(); id != "" {
		return "#" + dom.EscapeIdent(id)
	}
	if name := el.Name(); name != "" {
		return el.Tag() + "[name=" + dom.QuoteString(name) + "]"
	}

	return el.Tag()
}
