package form

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/dom"
)

// Strategy locates the live element for a descriptor. A strategy may return an
// element together with a non-fatal error, for example when a scoped selector could
// not be compiled but a document-wide lookup still succeeded.
type Strategy interface {
	Name() string
	Find(d Descriptor, root *dom.Element) (*dom.Element, error)
}

// Matcher runs its strategies in order and returns the first element found.
type Matcher struct {
	strategies []Strategy
	logger     *zap.Logger
}

// DefaultStrategies returns the id, name, label, placeholder and scan strategies in
// their canonical order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		idStrategy{},
		nameStrategy{},
		labelStrategy{},
		placeholderStrategy{},
		scanStrategy{},
	}
}

// NewMatcher builds a matcher. With no strategies the defaults are used.
func NewMatcher(logger *zap.Logger, strategies ...Strategy) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	return &Matcher{strategies: strategies, logger: logger}
}

// Match returns the element for d under root and the name of the strategy that found
// it. Strategy errors never abort the chain.
func (m *Matcher) Match(d Descriptor, root *dom.Element) (*dom.Element, string) {
	if root == nil {
		return nil, ""
	}

	for _, s := range m.strategies {
		el, err := s.Find(d, root)
		if err != nil {
			m.logger.Debug("match strategy degraded",
				zap.String("strategy", s.Name()),
				zap.String("field", d.Key()),
				zap.Error(err),
			)
		}
		if el != nil {
			return el, s.Name()
		}
	}

	return nil, ""
}

type idStrategy struct{}

func (idStrategy) Name() string { return "id" }

func (idStrategy) Find(d Descriptor, root *dom.Element) (*dom.Element, error) {
	if d.ID == "" {
		return nil, nil
	}

	el, err := root.QuerySelector("#" + dom.EscapeIdent(d.ID))
	if el != nil {
		return el, nil
	}

	return root.Document().GetElementByID(d.ID), err
}

type nameStrategy struct{}

func (nameStrategy) Name() string { return "name" }

func (nameStrategy) Find(d Descriptor, root *dom.Element) (*dom.Element, error) {
	if d.Name == "" {
		return nil, nil
	}

	sel := "[name=" + dom.QuoteString(d.Name) + "]"
	el, err := root.QuerySelector(sel)
	if err == nil && el == nil {
		el, err = root.Document().QuerySelector(sel)
	}
	if err != nil {
		if byName := root.Document().GetElementsByName(d.Name); len(byName) > 0 {
			return byName[0], err
		}
		return nil, err
	}

	return el, nil
}

type labelStrategy struct{}

func (labelStrategy) Name() string { return "label" }

func (labelStrategy) Find(d Descriptor, root *dom.Element) (*dom.Element, error) {
	want := strings.ToLower(strings.TrimSpace(d.Label))
	if want == "" {
		return nil, nil
	}

	doc := root.Document()
	for _, l := range doc.DocumentElement().Descendants("label") {
		if strings.ToLower(l.Text()) != want {
			continue
		}

		if target := l.AttrOr("for", ""); target != "" {
			if el := doc.GetElementByID(target); el != nil {
				return el, nil
			}
		}

		if nested := l.Descendants("input", "select", "textarea"); len(nested) > 0 {
			return nested[0], nil
		}
	}

	return nil, nil
}

type placeholderStrategy struct{}

func (placeholderStrategy) Name() string { return "placeholder" }

func (placeholderStrategy) Find(d Descriptor, root *dom.Element) (*dom.Element, error) {
	label := strings.ToLower(strings.TrimSpace(d.Label))
	if label == "" {
		return nil, nil
	}

	for _, el := range root.Descendants("input", "textarea") {
		placeholder := strings.ToLower(strings.TrimSpace(el.Placeholder()))
		if placeholder == "" {
			continue
		}
		if strings.Contains(placeholder, label) || strings.Contains(label, placeholder) {
			return el, nil
		}
	}

	return nil, nil
}

type scanStrategy struct{}

func (scanStrategy) Name() string { return "scan" }

func (scanStrategy) Find(d Descriptor, root *dom.Element) (*dom.Element, error) {
	if d.ID == "" && d.Name == "" {
		return nil, nil
	}

	for _, el := range root.Descendants("input", "select", "textarea") {
		if (d.ID != "" && el.ID() == d.ID) || (d.Name != "" && el.Name() == d.Name) {
			return el, nil
		}
	}

	return nil, nil
}
