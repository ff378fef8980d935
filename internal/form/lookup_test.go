package form

import "testing"

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mapping Mapping
		field   Descriptor
		value   string
		source  string
	}{
		{
			name:    "direct id wins over name",
			mapping: Mapping{"fname": "by id", "first_name": "by name"},
			field:   Descriptor{ID: "fname", Name: "first_name"},
			value:   "by id",
			source:  SourceDirect,
		},
		{
			name:    "direct label",
			mapping: Mapping{"Full Name": "Jane Doe"},
			field:   Descriptor{Label: "Full Name"},
			value:   "Jane Doe",
			source:  SourceDirect,
		},
		{
			name:    "case insensitive",
			mapping: Mapping{"Full Name": "Jane Doe"},
			field:   Descriptor{Label: " full name "},
			value:   "Jane Doe",
			source:  SourceNormalized,
		},
		{
			name:    "punctuation insensitive",
			mapping: Mapping{"Full Name": "Jane Doe"},
			field:   Descriptor{Label: "full-name"},
			value:   "Jane Doe",
			source:  SourceSimplified,
		},
		{
			name:    "simplified id",
			mapping: Mapping{"user_email": "jane@x.com"},
			field:   Descriptor{ID: "user[email]"},
			value:   "jane@x.com",
			source:  SourceSimplified,
		},
		{
			name:    "key contained in label",
			mapping: Mapping{"LinkedIn": "https://linkedin.com/in/jane"},
			field:   Descriptor{Label: "Your LinkedIn profile URL"},
			value:   "https://linkedin.com/in/jane",
			source:  SourceContains,
		},
		{
			name:    "label contained in key",
			mapping: Mapping{"Why do you want to work here?": "Mission"},
			field:   Descriptor{Label: "want to work here"},
			value:   "Mission",
			source:  SourceContains,
		},
		{
			name:    "category fallback",
			mapping: Mapping{"Mobile Number": "+1 555 0100"},
			field:   Descriptor{ID: "tel", Name: "applicant_phone"},
			value:   "+1 555 0100",
			source:  SourceCategory + ":phone",
		},
		{
			name:    "empty values are ignored",
			mapping: Mapping{"email": "", "E-mail": "jane@x.com"},
			field:   Descriptor{ID: "email"},
			value:   "jane@x.com",
			source:  SourceSimplified,
		},
		{
			name:    "no value",
			mapping: Mapping{"email": "jane@x.com"},
			field:   Descriptor{ID: "cover", Label: "Cover letter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, source := NewIndex(tt.mapping, DefaultCategories()).Lookup(tt.field)
			if value != tt.value || source != tt.source {
				t.Fatalf("expected %q via %q, got %q via %q", tt.value, tt.source, value, source)
			}
		})
	}
}

func TestLookupIsDeterministic(t *testing.T) {
	t.Parallel()

	mapping := Mapping{"Home phone": "1", "Cell phone": "2", "Work phone": "3"}
	field := Descriptor{Name: "telephone"}

	for i := 0; i < 20; i++ {
		value, _ := NewIndex(mapping, DefaultCategories()).Lookup(field)
		if value != "2" {
			t.Fatalf("expected first sorted key to win, got %q", value)
		}
	}
}

func TestLookupCustomCategories(t *testing.T) {
	t.Parallel()

	mapping := Mapping{"GitHub handle": "janedoe"}
	field := Descriptor{ID: "gh_user"}

	if v, _ := NewIndex(mapping, nil).Lookup(field); v != "" {
		t.Fatalf("expected no value without categories, got %q", v)
	}

	categories := []Category{{Name: "github", Terms: []string{"GitHub", "gh_"}}}
	v, source := NewIndex(mapping, categories).Lookup(field)
	if v != "janedoe" || source != "category:github" {
		t.Fatalf("expected custom category match, got %q via %q", v, source)
	}
}
