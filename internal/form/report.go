package form

// FieldError records a failure to fill one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Report summarizes one fill pass.
type Report struct {
	Attempted int          `json:"attempted"`
	Filled    int          `json:"filled"`
	Errors    []FieldError `json:"errors"`
}

// HasErrors reports whether any field failed.
func (r Report) HasErrors() bool {
	return len(r.Errors) > 0
}
