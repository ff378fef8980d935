package dom

import (
	"strings"
)

// Option is one <option> of a select element.
type Option struct {
	// Text is the displayed text with whitespace collapsed.
	Text string
	// Value is the value attribute, or Text when the attribute is absent.
	Value    string
	Selected bool
	Disabled bool

	el *Element
}

// nonTextInputTypes are input types that do not take free text.
var nonTextInputTypes = map[string]struct{}{
	"checkbox": {},
	"radio":    {},
	"file":     {},
	"submit":   {},
	"button":   {},
	"reset":    {},
	"image":    {},
	"hidden":   {},
	"range":    {},
	"color":    {},
}

// IsControl reports whether the element is an input, select or textarea.
func (e *Element) IsControl() bool {
	switch e.Tag() {
	case "input", "select", "textarea":
		return true
	default:
		return false
	}
}

// Type returns the lower-cased control type: the input type attribute (text when
// absent), "select" for select elements and "textarea" for textareas. Other elements
// return their tag name.
func (e *Element) Type() string {
	switch e.Tag() {
	case "input":
		t := strings.ToLower(strings.TrimSpace(e.AttrOr("type", "")))
		if t == "" {
			return "text"
		}
		return t
	default:
		return e.Tag()
	}
}

// IsTextLike reports whether the element accepts typed text: a textarea or an input
// of a free-text type.
func (e *Element) IsTextLike() bool {
	switch e.Tag() {
	case "textarea":
		return true
	case "input":
		_, excluded := nonTextInputTypes[e.Type()]
		return !excluded
	default:
		return false
	}
}

// Placeholder returns the placeholder attribute for text-like controls and an empty
// string for everything else.
func (e *Element) Placeholder() string {
	if !e.IsTextLike() {
		return ""
	}

	return e.AttrOr("placeholder", "")
}

func (e *Element) Required() bool { return e.HasAttr("required") }
func (e *Element) Disabled() bool { return e.HasAttr("disabled") }

// Value returns the current value of a control.
func (e *Element) Value() string {
	switch e.Tag() {
	case "textarea":
		return e.selection().Text()
	case "select":
		opts := e.Options()
		for _, o := range opts {
			if o.Selected {
				return o.Value
			}
		}
		if len(opts) > 0 && !e.HasAttr("multiple") {
			return opts[0].Value
		}
		return ""
	default:
		return e.AttrOr("value", "")
	}
}

// SetValue assigns a value to an input or textarea. For select elements the option
// with a matching value becomes selected.
func (e *Element) SetValue(v string) {
	switch e.Tag() {
	case "textarea":
		e.SetText(v)
	case "select":
		for i, o := range e.Options() {
			if o.Value == v {
				e.SelectOption(i)
				return
			}
		}
	default:
		e.SetAttr("value", v)
	}
}

// Checked reports whether a checkbox or radio carries the checked attribute.
func (e *Element) Checked() bool {
	return e.HasAttr("checked")
}

// SetChecked sets the checked state. Checking a radio unchecks the other radios of its
// group.
func (e *Element) SetChecked(checked bool) {
	if !checked {
		e.RemoveAttr("checked")
		return
	}

	if e.Type() == "radio" {
		for _, other := range e.RadioGroup() {
			if !other.Equal(e) {
				other.RemoveAttr("checked")
			}
		}
	}
	e.SetAttr("checked", "")
}

// RadioGroup returns the radios sharing this radio's name inside the same form, or
// inside the document when the radio has no form ancestor.
func (e *Element) RadioGroup() []*Element {
	name := e.Name()
	if e.Type() != "radio" || name == "" {
		return []*Element{e}
	}

	scope := e.Closest(func(x *Element) bool { return x.Tag() == "form" })
	if scope == nil {
		scope = e.doc.DocumentElement()
	}

	var group []*Element
	for _, in := range scope.Descendants("input") {
		if in.Type() == "radio" && in.Name() == name {
			group = append(group, in)
		}
	}

	return group
}

// Options returns the options of a select element in document order.
func (e *Element) Options() []Option {
	if e.Tag() != "select" {
		return nil
	}

	opts := e.Descendants("option")
	result := make([]Option, 0, len(opts))
	for _, o := range opts {
		text := strings.Join(strings.Fields(o.selection().Text()), " ")
		value, ok := o.Attr("value")
		if !ok {
			value = text
		}
		result = append(result, Option{
			Text:     text,
			Value:    value,
			Selected: o.HasAttr("selected"),
			Disabled: o.HasAttr("disabled"),
			el:       o,
		})
	}

	return result
}

// SelectOption marks the i-th option selected and clears the others.
func (e *Element) SelectOption(i int) bool {
	opts := e.Options()
	if i < 0 || i >= len(opts) {
		return false
	}

	for j, o := range opts {
		if j == i {
			o.el.SetAttr("selected", "")
		} else {
			o.el.RemoveAttr("selected")
		}
	}

	return true
}
