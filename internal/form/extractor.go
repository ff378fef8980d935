package form

import (
	"errors"

	"github.com/spigell/autofiller/internal/dom"
)

var (
	// ErrNoInputFields is returned when the container holds no eligible control.
	ErrNoInputFields = errors.New("no input fields found")
	// ErrNoIdentifiableFields is returned when every control lacks an id, a name and a label.
	ErrNoIdentifiableFields = errors.New("no identifiable fields found")
)

// skippedInputTypes are push-button and hidden inputs that never carry user data.
var skippedInputTypes = map[string]struct{}{
	"hidden": {},
	"submit": {},
	"button": {},
	"reset":  {},
	"image":  {},
}

// Eligible returns the controls of root that take part in capture and fill, in
// document order.
func Eligible(root *dom.Element) []*dom.Element {
	var result []*dom.Element
	for _, el := range root.Descendants("input", "select", "textarea") {
		if _, skip := skippedInputTypes[el.Type()]; skip && el.Tag() == "input" {
			continue
		}
		result = append(result, el)
	}

	return result
}

// Extract builds one descriptor per eligible control under root, preserving document
// order. It returns ErrNoInputFields when there is nothing to describe and
// ErrNoIdentifiableFields when no descriptor carries an id, a name or a label.
func Extract(root *dom.Element) ([]Descriptor, error) {
	if root == nil {
		return nil, ErrNoInputFields
	}

	controls := Eligible(root)
	if len(controls) == 0 {
		return nil, ErrNoInputFields
	}

	fields := make([]Descriptor, 0, len(controls))
	identifiable := 0
	for _, el := range controls {
		d := Describe(el)
		if d.Identifiable() {
			identifiable++
		}
		fields = append(fields, d)
	}

	if identifiable == 0 {
		return fields, ErrNoIdentifiableFields
	}

	return fields, nil
}

// Describe captures a single control.
func Describe(el *dom.Element) Descriptor {
	d := Descriptor{
		ID:       el.ID(),
		Name:     el.Name(),
		Type:     el.Type(),
		Label:    ResolveLabel(el),
		Value:    el.Value(),
		Required: el.Required(),
	}

	if d.Type == "file" {
		d.Value = ""
		d.CannotAutoFill = true
		d.Notes = FileInputNote
	}

	if el.Tag() == "select" {
		opts := el.Options()
		d.Options = make([]string, 0, len(opts))
		for _, o := range opts {
			d.Options = append(d.Options, o.Text)
		}
	}

	return d
}
