package form

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/dom"
)

// Filler drives one fill pass: match, look up, bind, tally.
type Filler struct {
	matcher    *Matcher
	binder     *Binder
	categories []Category
	logger     *zap.Logger
}

// NewFiller wires a matcher and binder. A nil category table falls back to the
// defaults.
func NewFiller(logger *zap.Logger, matcher *Matcher, binder *Binder, categories []Category) *Filler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matcher == nil {
		matcher = NewMatcher(logger)
	}
	if binder == nil {
		binder = NewBinder(nil)
	}
	if categories == nil {
		categories = DefaultCategories()
	}

	return &Filler{matcher: matcher, binder: binder, categories: categories, logger: logger}
}

// Fill processes fields in order against root. Fields without an element or a value
// are skipped silently; bind failures are recorded and never stop the pass. A
// cancelled context stops the pass before the next field.
func (f *Filler) Fill(ctx context.Context, root *dom.Element, fields []Descriptor, m Mapping) Report {
	idx := NewIndex(m, f.categories)
	report := Report{Errors: []FieldError{}}

	for _, d := range fields {
		if ctx.Err() != nil {
			report.Errors = append(report.Errors, FieldError{Field: d.Key(), Message: ctx.Err().Error()})
			break
		}

		report.Attempted++
		log := f.logger.With(zap.String("field", d.Key()))

		if d.CannotAutoFill {
			log.Debug("field skipped", zap.String("reason", d.Notes))
			continue
		}

		el, strategy := f.matcher.Match(d, root)
		if el == nil {
			log.Debug("no element matched")
			continue
		}

		value, source := idx.Lookup(d)
		if value == "" {
			log.Debug("no value resolved", zap.String("strategy", strategy))
			continue
		}

		filled, err := f.binder.Bind(root, el, value)
		if err != nil {
			log.Warn("bind failed", zap.Error(err))
			report.Errors = append(report.Errors, FieldError{Field: d.Key(), Message: err.Error()})
			continue
		}
		if filled {
			report.Filled++
		}

		log.Debug("field processed",
			zap.String("strategy", strategy),
			zap.String("source", source),
			zap.String("element", el.Describe()),
			zap.Bool("filled", filled),
		)
	}

	return report
}
