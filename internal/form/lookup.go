package form

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Mapping holds the values returned by the resolver keyed by whatever id, name or
// label it chose to echo back.
type Mapping map[string]string

// Category groups synonym terms for one kind of personal data.
type Category struct {
	Name  string   `mapstructure:"name" json:"name"`
	Terms []string `mapstructure:"terms" json:"terms"`
}

// DefaultCategories returns the built-in category table.
func DefaultCategories() []Category {
	return []Category{
		{Name: "name", Terms: []string{"name", "full name", "first name", "last name"}},
		{Name: "email", Terms: []string{"email", "e-mail", "mail"}},
		{Name: "phone", Terms: []string{"phone", "telephone", "mobile", "cell"}},
		{Name: "address", Terms: []string{"address", "street", "location"}},
		{Name: "city", Terms: []string{"city", "town"}},
		{Name: "state", Terms: []string{"state", "province", "region"}},
		{Name: "zip", Terms: []string{"zip", "postal", "zip code", "postcode"}},
		{Name: "country", Terms: []string{"country", "nation"}},
	}
}

// Lookup source names reported alongside a resolved value.
const (
	SourceDirect     = "direct"
	SourceNormalized = "normalized"
	SourceSimplified = "simplified"
	SourceContains   = "contains"
	SourceCategory   = "category"
)

// Index is a mapping prepared for one fill pass. Keys are visited in sorted order so
// that lookups are deterministic.
type Index struct {
	raw        Mapping
	keys       []string
	folded     map[string]string
	normalized map[string]string
	simplified map[string]string
	categories []Category
	fold       cases.Caser
}

// NewIndex normalizes m once. A nil category table disables the category fallback.
func NewIndex(m Mapping, categories []Category) *Index {
	idx := &Index{
		raw:        m,
		keys:       make([]string, 0, len(m)),
		folded:     make(map[string]string, len(m)),
		normalized: make(map[string]string, len(m)),
		simplified: make(map[string]string, len(m)),
		fold:       cases.Fold(),
	}

	for k, v := range m {
		if v == "" {
			continue
		}
		idx.keys = append(idx.keys, k)
	}
	sort.Strings(idx.keys)

	for _, k := range idx.keys {
		folded := idx.normalize(k)
		idx.folded[k] = folded
		if _, ok := idx.normalized[folded]; !ok && folded != "" {
			idx.normalized[folded] = m[k]
		}
		if simple := simplify(folded); simple != "" {
			if _, ok := idx.simplified[simple]; !ok {
				idx.simplified[simple] = m[k]
			}
		}
	}

	idx.categories = make([]Category, 0, len(categories))
	for _, c := range categories {
		terms := make([]string, 0, len(c.Terms))
		for _, t := range c.Terms {
			if t = idx.normalize(t); t != "" {
				terms = append(terms, t)
			}
		}
		idx.categories = append(idx.categories, Category{Name: c.Name, Terms: terms})
	}

	return idx
}

// Len returns the number of usable entries.
func (idx *Index) Len() int {
	return len(idx.keys)
}

// Lookup resolves the value for d: direct key equality on id, name and label, then
// case-insensitive and punctuation-insensitive equality, then label containment in
// either direction, then the category fallback. It returns the value and the name of
// the rule that produced it, or two empty strings.
func (idx *Index) Lookup(d Descriptor) (string, string) {
	for _, key := range []string{d.ID, d.Name, d.Label} {
		if key == "" {
			continue
		}
		if v := idx.raw[key]; v != "" {
			return v, SourceDirect
		}
	}

	for _, key := range []string{d.ID, d.Name, d.Label} {
		folded := idx.normalize(key)
		if folded == "" {
			continue
		}
		if v, ok := idx.normalized[folded]; ok {
			return v, SourceNormalized
		}
		if v, ok := idx.simplified[simplify(folded)]; ok {
			return v, SourceSimplified
		}
	}

	if label := idx.normalize(d.Label); label != "" {
		for _, k := range idx.keys {
			key := idx.folded[k]
			if key == "" {
				continue
			}
			if strings.Contains(key, label) || strings.Contains(label, key) {
				return idx.raw[k], SourceContains
			}
		}
	}

	texts := make([]string, 0, 3)
	for _, t := range []string{d.ID, d.Name, d.Label} {
		if t = idx.normalize(t); t != "" {
			texts = append(texts, t)
		}
	}

	for _, c := range idx.categories {
		if !anyContains(texts, c.Terms) {
			continue
		}
		for _, k := range idx.keys {
			if anyContains([]string{idx.folded[k]}, c.Terms) {
				return idx.raw[k], SourceCategory + ":" + c.Name
			}
		}
	}

	return "", ""
}

func (idx *Index) normalize(s string) string {
	return strings.TrimSpace(idx.fold.String(s))
}

// simplify keeps letters and digits only.
func simplify(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func anyContains(texts, terms []string) bool {
	for _, text := range texts {
		for _, term := range terms {
			if strings.Contains(text, term) {
				return true
			}
		}
	}

	return false
}
