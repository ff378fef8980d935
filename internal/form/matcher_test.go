package form

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/autofiller/internal/dom"
)

const matcherPage = `<html><body>
<form id="main">
  <input id="user[email]" name="user[email]">
  <input name="q&quot;1" id="quoted">
  <label>Years of experience <input id="years" type="number"></label>
  <label for="city-input">City</label>
  <input id="city-input">
  <input id="zip" placeholder="Postal code (ZIP)">
  <select name="country"><option>Canada</option></select>
</form>
<input id="outside" name="outside">
<div id="not-a-control">text</div>
</body></html>`

func TestMatcherStrategies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		field    Descriptor
		expectID string
		strategy string
	}{
		{name: "id with brackets", field: Descriptor{ID: "user[email]"}, expectID: "user[email]", strategy: "id"},
		{name: "id outside container", field: Descriptor{ID: "outside"}, expectID: "outside", strategy: "id"},
		{name: "name with quote", field: Descriptor{Name: `q"1`}, expectID: "quoted", strategy: "name"},
		{name: "name outside container", field: Descriptor{Name: "outside"}, expectID: "outside", strategy: "name"},
		{name: "label wraps control", field: Descriptor{Label: "years of experience"}, expectID: "years", strategy: "label"},
		{name: "label for", field: Descriptor{Label: " CITY "}, expectID: "city-input", strategy: "label"},
		{name: "label contained in placeholder", field: Descriptor{Label: "postal code"}, expectID: "zip", strategy: "placeholder"},
		{name: "placeholder contained in label", field: Descriptor{Label: "Your postal code (zip) please"}, expectID: "zip", strategy: "placeholder"},
		{name: "stale id falls back to name", field: Descriptor{ID: "gone", Name: "country"}, strategy: "name"},
		{name: "no match", field: Descriptor{ID: "missing", Name: "missing", Label: "Nothing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, matcherPage)
			m := NewMatcher(zap.NewNop())

			el, strategy := m.Match(tt.field, doc.GetElementByID("main"))
			if strategy != tt.strategy {
				t.Fatalf("expected strategy %q, got %q (%s)", tt.strategy, strategy, el.Describe())
			}
			if tt.strategy == "" {
				if el != nil {
					t.Fatalf("expected no element, got %s", el.Describe())
				}
				return
			}
			if el == nil {
				t.Fatalf("expected element")
			}
			if tt.expectID != "" && el.ID() != tt.expectID {
				t.Fatalf("expected #%s, got %s", tt.expectID, el.Describe())
			}
		})
	}
}

func TestMatcherIsIdempotent(t *testing.T) {
	t.Parallel()

	doc := parse(t, matcherPage)
	root := doc.GetElementByID("main")
	m := NewMatcher(nil)

	for _, d := range []Descriptor{{ID: "user[email]"}, {Label: "City"}, {Label: "postal code"}, {Name: "country"}} {
		first, s1 := m.Match(d, root)
		second, s2 := m.Match(d, root)
		if !first.Equal(second) || s1 != s2 {
			t.Fatalf("matching %+v is not idempotent: %s/%s vs %s/%s", d, first.Describe(), s1, second.Describe(), s2)
		}
	}
}

type brokenStrategy struct{}

func (brokenStrategy) Name() string { return "broken" }

func (brokenStrategy) Find(Descriptor, *dom.Element) (*dom.Element, error) {
	return nil, &dom.SelectorError{Selector: "#[", Err: errBroken}
}

var errBroken = errors.New("unexpected token")

func TestMatcherContinuesAfterStrategyError(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	doc := parse(t, matcherPage)

	m := NewMatcher(zap.New(core), brokenStrategy{}, scanStrategy{})
	el, strategy := m.Match(Descriptor{Name: "country"}, doc.GetElementByID("main"))
	if el == nil || strategy != "scan" {
		t.Fatalf("expected scan to recover, got %s via %q", el.Describe(), strategy)
	}

	entries := logs.FilterMessage("match strategy degraded").All()
	if len(entries) != 1 {
		t.Fatalf("expected one degraded log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["strategy"] != "broken" {
		t.Fatalf("unexpected log fields: %v", entries[0].ContextMap())
	}
}

func TestMatcherNilRoot(t *testing.T) {
	t.Parallel()

	if el, s := NewMatcher(nil).Match(Descriptor{ID: "x"}, nil); el != nil || s != "" {
		t.Fatalf("expected no match without a root")
	}
}
