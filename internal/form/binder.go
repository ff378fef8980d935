package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/autofiller/internal/dom"
)

// selectScoreThreshold is the minimum word-overlap score accepted for a select option.
const selectScoreThreshold = 0.3

var (
	// ErrNotControl is returned when the matched element cannot hold a value.
	ErrNotControl = errors.New("matched element is not a form control")
	// ErrDisabled is returned when the matched control is disabled.
	ErrDisabled = errors.New("matched control is disabled")
)

var affirmative = map[string]struct{}{
	"yes":     {},
	"true":    {},
	"checked": {},
	"y":       {},
	"1":       {},
}

// Binder writes resolved values into controls and notifies page listeners.
type Binder struct {
	notifier dom.Notifier
}

// NewBinder returns a binder that reports every change through n. A nil notifier
// disables notifications.
func NewBinder(n dom.Notifier) *Binder {
	return &Binder{notifier: n}
}

// Bind applies value to el and reports whether the control now holds it. File inputs
// are never written. Radios that do not match the value hand over to a matching
// radio of the same group inside root.
func (b *Binder) Bind(root, el *dom.Element, value string) (filled bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			filled = false
			err = fmt.Errorf("bind %s: %v", el.Describe(), r)
		}
	}()

	if !el.IsControl() {
		return false, fmt.Errorf("%s: %w", el.Describe(), ErrNotControl)
	}
	if el.Disabled() {
		return false, fmt.Errorf("%s: %w", el.Describe(), ErrDisabled)
	}

	switch el.Type() {
	case "file":
		return false, nil
	case "checkbox":
		el.SetChecked(IsAffirmative(value))
		b.notify(el, dom.EventChange)
		return true, nil
	case "radio":
		return b.bindRadio(root, el, value), nil
	case "select":
		return b.bindSelect(el, value), nil
	default:
		el.SetValue(value)
		b.notify(el, dom.EventInput)
		b.notify(el, dom.EventChange)
		return true, nil
	}
}

// IsAffirmative reports whether v reads as a yes.
func IsAffirmative(v string) bool {
	_, ok := affirmative[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

func (b *Binder) bindRadio(root, el *dom.Element, value string) bool {
	own, hasValue := el.Attr("value")
	if !hasValue || own == "" {
		el.SetChecked(IsAffirmative(value))
		b.notify(el, dom.EventChange)
		return true
	}

	candidates := []*dom.Element{el}
	for _, other := range el.RadioGroup() {
		if other.Equal(el) || other.Disabled() {
			continue
		}
		if root != nil && !root.Contains(other) {
			continue
		}
		candidates = append(candidates, other)
	}

	// Exact values first: "male" is a substring of "female".
	want := strings.ToLower(strings.TrimSpace(value))
	for _, radio := range candidates {
		if want != "" && strings.ToLower(strings.TrimSpace(radio.AttrOr("value", ""))) == want {
			return b.checkRadio(radio)
		}
	}
	for _, radio := range candidates {
		if fuzzyEqual(radio.AttrOr("value", ""), value) {
			return b.checkRadio(radio)
		}
	}

	return false
}

func (b *Binder) checkRadio(radio *dom.Element) bool {
	radio.SetChecked(true)
	b.notify(radio, dom.EventChange)
	return true
}

func (b *Binder) bindSelect(el *dom.Element, value string) bool {
	opts := el.Options()
	want := strings.ToLower(strings.TrimSpace(value))

	for i, o := range opts {
		text := strings.ToLower(o.Text)
		if containsEither(text, want) || (o.Value != "" && strings.EqualFold(o.Value, want)) {
			el.SelectOption(i)
			b.notify(el, dom.EventChange)
			return true
		}
	}

	best, bestScore := -1, 0.0
	for i, o := range opts {
		if score := wordOverlap(o.Text, value); score > bestScore {
			best, bestScore = i, score
		}
	}

	if best >= 0 && bestScore > selectScoreThreshold {
		el.SelectOption(best)
		b.notify(el, dom.EventChange)
		return true
	}

	return false
}

func (b *Binder) notify(el *dom.Element, kind dom.EventKind) {
	if b.notifier != nil {
		b.notifier.Notify(el, kind)
	}
}

// wordOverlap counts the option words that share a substring with any value word and
// divides by the larger word count.
func wordOverlap(option, value string) float64 {
	optionWords := strings.Fields(strings.ToLower(option))
	valueWords := strings.Fields(strings.ToLower(value))

	longest := max(len(optionWords), len(valueWords))
	if longest == 0 {
		return 0
	}

	matching := 0
	for _, ow := range optionWords {
		for _, vw := range valueWords {
			if strings.Contains(vw, ow) || strings.Contains(ow, vw) {
				matching++
				break
			}
		}
	}

	return float64(matching) / float64(longest)
}

func fuzzyEqual(a, b string) bool {
	return containsEither(strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b)))
}

// containsEither reports substring containment in either direction. Empty strings
// never match.
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	return strings.Contains(a, b) || strings.Contains(b, a)
}
