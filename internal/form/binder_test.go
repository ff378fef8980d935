package form

import (
	"errors"
	"testing"

	"github.com/spigell/autofiller/internal/dom"
)

type recordedEvent struct {
	id   string
	kind dom.EventKind
}

type recorder struct {
	events []recordedEvent
}

func (r *recorder) Notify(el *dom.Element, kind dom.EventKind) {
	r.events = append(r.events, recordedEvent{id: el.ID(), kind: kind})
}

const binderPage = `<html><body>
<form id="f">
  <input id="agree" type="checkbox" checked>
  <input id="text" type="text">
  <textarea id="area"></textarea>
  <select id="country">
    <option>United States</option>
    <option>Canada</option>
    <option>Mexico</option>
  </select>
  <select id="level">
    <option value="">Select...</option>
    <option value="1">Senior Software Engineer</option>
    <option value="2">Junior Designer</option>
  </select>
  <input type="radio" name="remote" id="remote-yes" value="Yes">
  <input type="radio" name="remote" id="remote-no" value="No">
  <input type="radio" name="plain" id="plain">
  <input type="file" id="cv">
  <input id="locked" disabled>
  <div id="box"></div>
</form>
</body></html>`

func TestBindCheckbox(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		checked bool
	}{
		{value: "yes", checked: true},
		{value: "Y", checked: true},
		{value: "1", checked: true},
		{value: "true", checked: true},
		{value: "Checked", checked: true},
		{value: "no", checked: false},
		{value: "maybe", checked: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, binderPage)
			rec := &recorder{}
			el := doc.GetElementByID("agree")

			filled, err := NewBinder(rec).Bind(doc.Forms()[0], el, tt.value)
			if err != nil || !filled {
				t.Fatalf("expected bind to succeed, got %v %v", filled, err)
			}
			if el.Checked() != tt.checked {
				t.Fatalf("expected checked=%v for %q", tt.checked, tt.value)
			}
			if len(rec.events) != 1 || rec.events[0].kind != dom.EventChange {
				t.Fatalf("expected one change event, got %v", rec.events)
			}
		})
	}
}

func TestBindTextNotifiesInputThenChange(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"text", "area"} {
		doc := parse(t, binderPage)
		rec := &recorder{}
		el := doc.GetElementByID(id)

		filled, err := NewBinder(rec).Bind(doc.Forms()[0], el, "Jane Doe")
		if err != nil || !filled {
			t.Fatalf("%s: expected bind to succeed, got %v %v", id, filled, err)
		}
		if el.Value() != "Jane Doe" {
			t.Fatalf("%s: unexpected value %q", id, el.Value())
		}
		want := []recordedEvent{{id: id, kind: dom.EventInput}, {id: id, kind: dom.EventChange}}
		if len(rec.events) != 2 || rec.events[0] != want[0] || rec.events[1] != want[1] {
			t.Fatalf("%s: unexpected events %v", id, rec.events)
		}
	}
}

func TestBindSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		id     string
		value  string
		filled bool
		expect string
	}{
		{name: "abbreviation without hint fails", id: "country", value: "US", filled: false, expect: "United States"},
		{name: "text substring", id: "country", value: "canada", filled: true, expect: "Canada"},
		{name: "value equality", id: "level", value: "2", filled: true, expect: "2"},
		{name: "value contains option text", id: "country", value: "Mexico City, Mexico", filled: true, expect: "Mexico"},
		{name: "word overlap above threshold", id: "level", value: "Software Engineer II", filled: true, expect: "1"},
		{name: "word overlap below threshold", id: "level", value: "Principal Architect of Systems", filled: false, expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, binderPage)
			rec := &recorder{}
			el := doc.GetElementByID(tt.id)

			filled, err := NewBinder(rec).Bind(doc.Forms()[0], el, tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filled != tt.filled {
				t.Fatalf("expected filled=%v, got %v", tt.filled, filled)
			}
			if el.Value() != tt.expect {
				t.Fatalf("expected value %q, got %q", tt.expect, el.Value())
			}
			if tt.filled && (len(rec.events) != 1 || rec.events[0].kind != dom.EventChange) {
				t.Fatalf("expected a change event, got %v", rec.events)
			}
			if !tt.filled && len(rec.events) != 0 {
				t.Fatalf("expected no events, got %v", rec.events)
			}
		})
	}
}

func TestBindRadio(t *testing.T) {
	t.Parallel()

	t.Run("matching radio", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, binderPage)
		yes := doc.GetElementByID("remote-yes")

		filled, err := NewBinder(nil).Bind(doc.Forms()[0], yes, "yes")
		if err != nil || !filled || !yes.Checked() {
			t.Fatalf("expected yes to be checked, got %v %v", filled, err)
		}
	})

	t.Run("hands over to group member", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, binderPage)
		yes := doc.GetElementByID("remote-yes")
		no := doc.GetElementByID("remote-no")

		filled, err := NewBinder(nil).Bind(doc.Forms()[0], yes, "No")
		if err != nil || !filled {
			t.Fatalf("expected group member to be checked, got %v %v", filled, err)
		}
		if yes.Checked() || !no.Checked() {
			t.Fatalf("expected only the no radio checked")
		}
	})

	t.Run("no matching member", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, binderPage)
		yes := doc.GetElementByID("remote-yes")

		filled, err := NewBinder(nil).Bind(doc.Forms()[0], yes, "Hybrid")
		if err != nil || filled {
			t.Fatalf("expected nothing to be filled, got %v %v", filled, err)
		}
	})

	t.Run("exact value beats containment", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name  string
			page  string
			value string
			want  string
		}{
			{
				name:  "male listed first",
				page:  `<form><input type="radio" name="gender" id="male" value="male"><input type="radio" name="gender" id="female" value="female"></form>`,
				value: "Male",
				want:  "male",
			},
			{
				name:  "female listed first",
				page:  `<form><input type="radio" name="gender" id="female" value="female"><input type="radio" name="gender" id="male" value="male"></form>`,
				value: "Male",
				want:  "male",
			},
			{
				name:  "female requested",
				page:  `<form><input type="radio" name="gender" id="female" value="female"><input type="radio" name="gender" id="male" value="male"></form>`,
				value: "Female",
				want:  "female",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				doc := parse(t, tt.page)
				root := doc.Forms()[0]
				binder := NewBinder(nil)

				// every radio of the group is its own field and gets bound in turn
				for _, id := range []string{"male", "female"} {
					if _, err := binder.Bind(root, doc.GetElementByID(id), tt.value); err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
				}

				for _, id := range []string{"male", "female"} {
					if got := doc.GetElementByID(id).Checked(); got != (id == tt.want) {
						t.Fatalf("expected %s checked=%v, got %v", id, id == tt.want, got)
					}
				}
			})
		}
	})

	t.Run("containment still applies without an exact value", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, `<form><input type="radio" name="auth" id="auth-yes" value="Yes, I am authorized"><input type="radio" name="auth" id="auth-no" value="No"></form>`)
		yes := doc.GetElementByID("auth-yes")

		filled, err := NewBinder(nil).Bind(doc.Forms()[0], doc.GetElementByID("auth-no"), "yes")
		if err != nil || !filled || !yes.Checked() {
			t.Fatalf("expected the containing radio checked, got %v %v", filled, err)
		}
	})

	t.Run("radio without value uses affirmative test", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, binderPage)
		plain := doc.GetElementByID("plain")

		filled, err := NewBinder(nil).Bind(doc.Forms()[0], plain, "true")
		if err != nil || !filled || !plain.Checked() {
			t.Fatalf("expected radio checked, got %v %v", filled, err)
		}
	})
}

func TestBindRejectsAndSkips(t *testing.T) {
	t.Parallel()

	doc := parse(t, binderPage)
	b := NewBinder(nil)
	root := doc.Forms()[0]

	filled, err := b.Bind(root, doc.GetElementByID("cv"), "cv.pdf")
	if err != nil || filled {
		t.Fatalf("file inputs must be skipped, got %v %v", filled, err)
	}
	if _, ok := doc.GetElementByID("cv").Attr("value"); ok {
		t.Fatalf("file input must not receive a value")
	}

	if _, err := b.Bind(root, doc.GetElementByID("locked"), "x"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if _, err := b.Bind(root, doc.GetElementByID("box"), "x"); !errors.Is(err, ErrNotControl) {
		t.Fatalf("expected ErrNotControl, got %v", err)
	}
	if _, err := b.Bind(root, nil, "x"); err == nil {
		t.Fatalf("expected a recovered error for a nil element")
	}
}
