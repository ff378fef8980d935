package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// SelectorError is returned when a selector cannot be compiled, typically because an
// id or name with special characters was not escaped.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }

func compile(sel string) (cascadia.Selector, error) {
	m, err := cascadia.Compile(sel)
	if err != nil {
		return nil, &SelectorError{Selector: sel, Err: err}
	}

	return m, nil
}

// EscapeIdent serializes s as a CSS identifier so it can follow '#' or '.' in a
// selector. It follows the CSSOM serialize-an-identifier algorithm.
func EscapeIdent(s string) string {
	runes := []rune(s)
	var b strings.Builder

	for i, r := range runes {
		switch {
		case r == 0:
			b.WriteRune('\uFFFD')
		case (r >= 0x01 && r <= 0x1F) || r == 0x7F,
			i == 0 && isDigit(r),
			i == 1 && isDigit(r) && runes[0] == '-':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r == '-' && len(runes) == 1:
			b.WriteString(`\-`)
		case r >= 0x80 || r == '-' || r == '_' || isDigit(r) || isLetter(r):
			b.WriteRune(r)
		default:
			b.WriteRune('\\')
			b.WriteRune(r)
		}
	}

	return b.String()
}

// QuoteString serializes s as a double-quoted CSS string for attribute selectors.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == 0:
			b.WriteRune('\uFFFD')
		case (r >= 0x01 && r <= 0x1F) || r == 0x7F:
			fmt.Fprintf(&b, "\\%x ", r)
		case r == '"' || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')

	return b.String()
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
