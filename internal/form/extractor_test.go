package form

import (
	"errors"
	"testing"

	"github.com/spigell/autofiller/internal/dom"
)

const applicationPage = `<html><head><title>Careers</title></head><body>
<form id="application">
  <label for="name">Full Name</label>
  <input id="name" name="full_name" type="text" required>
  <input type="hidden" name="csrf" value="t0ken">
  <div class="form-group">
    <label>Email address</label>
    <input name="email" type="email">
  </div>
  <input id="phone" placeholder="Phone number">
  <select id="country" name="country">
    <option>United States</option>
    <option>Canada</option>
    <option>Mexico</option>
  </select>
  <textarea id="cover"></textarea>
  <input type="file" id="resume" value="C:\fakepath\cv.pdf">
  <input type="submit" value="Send">
  <input type="button" value="Preview">
  <input type="reset">
</form>
</body></html>`

func parse(t *testing.T, src string) *dom.Document {
	t.Helper()

	doc, err := dom.ParseString(src, "https://jobs.example.com/apply")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	return doc
}

func TestExtractPreservesOrderAndSkipsButtons(t *testing.T) {
	doc := parse(t, applicationPage)

	fields, err := Extract(doc.Forms()[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantKeys := []string{"name", "email", "phone", "country", "cover", "resume"}
	if len(fields) != len(wantKeys) {
		t.Fatalf("expected %d descriptors, got %d: %+v", len(wantKeys), len(fields), fields)
	}
	for i, key := range wantKeys {
		if fields[i].Key() != key {
			t.Fatalf("descriptor %d: expected %q, got %q", i, key, fields[i].Key())
		}
	}

	name := fields[0]
	if name.Label != "Full Name" || !name.Required || name.Type != "text" || name.Name != "full_name" {
		t.Fatalf("unexpected name descriptor: %+v", name)
	}
	if fields[1].Label != "Email address" || fields[1].Type != "email" {
		t.Fatalf("expected field-group label, got %+v", fields[1])
	}
	if fields[2].Label != "Phone number" || fields[2].Type != "text" {
		t.Fatalf("expected placeholder label, got %+v", fields[2])
	}
	if fields[4].Type != "textarea" || fields[4].Label != "" {
		t.Fatalf("unexpected textarea descriptor: %+v", fields[4])
	}
}

func TestExtractSelectOptions(t *testing.T) {
	doc := parse(t, applicationPage)

	fields, err := Extract(doc.Forms()[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	country := fields[3]
	if country.Type != "select" {
		t.Fatalf("expected select type, got %q", country.Type)
	}
	want := []string{"United States", "Canada", "Mexico"}
	if len(country.Options) != len(want) {
		t.Fatalf("unexpected options %v", country.Options)
	}
	for i := range want {
		if country.Options[i] != want[i] {
			t.Fatalf("option %d: expected %q, got %q", i, want[i], country.Options[i])
		}
	}
	if fields[0].Options != nil {
		t.Fatalf("non-select descriptors must not carry options")
	}
}

func TestExtractFileInputsCannotAutoFill(t *testing.T) {
	doc := parse(t, applicationPage)

	fields, err := Extract(doc.Forms()[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file := fields[5]
	if !file.CannotAutoFill || file.Value != "" || file.Notes != FileInputNote {
		t.Fatalf("unexpected file descriptor: %+v", file)
	}
	for _, f := range fields[:5] {
		if f.CannotAutoFill {
			t.Fatalf("only file inputs are marked, got %+v", f)
		}
	}
}

func TestExtractFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		page   string
		expect error
		count  int
	}{
		{
			name:   "empty container",
			page:   `<form><p>Nothing here</p></form>`,
			expect: ErrNoInputFields,
		},
		{
			name:   "only hidden and buttons",
			page:   `<form><input type="hidden" name="a"><button>Go</button><input type="submit"></form>`,
			expect: ErrNoInputFields,
		},
		{
			name:   "no identifiable fields",
			page:   `<form><input type="text"><textarea></textarea></form>`,
			expect: ErrNoIdentifiableFields,
			count:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, tt.page)
			fields, err := Extract(doc.Forms()[0])
			if !errors.Is(err, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, err)
			}
			if len(fields) != tt.count {
				t.Fatalf("expected %d descriptors, got %d", tt.count, len(fields))
			}
		})
	}
}

func TestExtractNilRoot(t *testing.T) {
	t.Parallel()

	if _, err := Extract(nil); !errors.Is(err, ErrNoInputFields) {
		t.Fatalf("expected ErrNoInputFields, got %v", err)
	}
}

func TestIdentifiableFiltersAnonymousFields(t *testing.T) {
	t.Parallel()

	fields := []Descriptor{{ID: "a"}, {Type: "text"}, {Label: "Phone"}}
	got := Identifiable(fields)
	if len(got) != 2 || got[0].ID != "a" || got[1].Label != "Phone" {
		t.Fatalf("unexpected identifiable fields: %+v", got)
	}
}

func TestResolveLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		page   string
		target string
		expect string
	}{
		{
			name:   "explicit label wins over placeholder",
			page:   `<label for="x"> First name </label><input id="x" placeholder="Given name">`,
			target: "x",
			expect: "First name",
		},
		{
			name:   "placeholder before group label",
			page:   `<div class="field"><label>Group</label><input id="x" placeholder="Inline"></div>`,
			target: "x",
			expect: "Inline",
		},
		{
			name:   "checkbox ignores placeholder",
			page:   `<div class="input-group"><label>Agree</label><input type="checkbox" id="x" placeholder="ignored"></div>`,
			target: "x",
			expect: "Agree",
		},
		{
			name:   "ids with brackets",
			page:   `<label for="q[1]">Question one</label><input id="q[1]">`,
			target: "q[1]",
			expect: "Question one",
		},
		{
			name:   "nothing available",
			page:   `<div><input id="x"></div>`,
			target: "x",
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := parse(t, tt.page)
			el := doc.GetElementByID(tt.target)
			if got := ResolveLabel(el); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
