package form

// FileInputNote explains why file inputs are captured but never filled.
const FileInputNote = "File inputs cannot be filled automatically due to security restrictions"

// Descriptor is the abstract record of one form control captured at extraction time.
type Descriptor struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Value    string   `json:"value"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`

	CannotAutoFill bool   `json:"cannotAutoFill,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Identifiable reports whether the descriptor carries an id, a name or a label.
func (d Descriptor) Identifiable() bool {
	return d.ID != "" || d.Name != "" || d.Label != ""
}

// Key returns the first non-empty identifier, used in logs and fill errors.
func (d Descriptor) Key() string {
	switch {
	case d.ID != "":
		return d.ID
	case d.Name != "":
		return d.Name
	default:
		return d.Label
	}
}

// Snapshot is one captured form. It is replaced wholesale on the next capture.
type Snapshot struct {
	URL    string       `json:"url"`
	Title  string       `json:"title"`
	Fields []Descriptor `json:"fields"`
}

// Identifiable returns the descriptors that carry an id, a name or a label.
func Identifiable(fields []Descriptor) []Descriptor {
	result := make([]Descriptor, 0, len(fields))
	for _, f := range fields {
		if f.Identifiable() {
			result = append(result, f)
		}
	}

	return result
}
