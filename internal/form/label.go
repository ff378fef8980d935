package form

import (
	"github.com/spigell/autofiller/internal/dom"
)

// fieldGroupClasses are the wrapper classes whose first <label> describes the control.
var fieldGroupClasses = []string{"form-group", "field", "input-group"}

// ResolveLabel returns the best human readable label for el: the text of a
// <label for=ID>, then the placeholder of a text-like control, then the first label
// inside the closest field-group wrapper. An empty result is valid.
func ResolveLabel(el *dom.Element) string {
	doc := el.Document()

	if id := el.ID(); id != "" {
		for _, l := range doc.DocumentElement().Descendants("label") {
			if l.AttrOr("for", "") == id {
				if text := l.Text(); text != "" {
					return text
				}
				break
			}
		}
	}

	if placeholder := el.Placeholder(); placeholder != "" {
		return placeholder
	}

	group := el.Closest(func(x *dom.Element) bool {
		for _, class := range fieldGroupClasses {
			if x.HasClass(class) {
				return true
			}
		}
		return false
	})
	if group == nil {
		return ""
	}

	if labels := group.Descendants("label"); len(labels) > 0 {
		return labels[0].Text()
	}

	return ""
}
