package ai

import (
	_ "embed"
	"strings"
	"unicode"

	"github.com/spigell/autofiller/internal/form"
)

//go:embed system.md
var systemTemplate string

//go:embed prompt.md
var promptTemplate string

const maxUserInstructionRunes = 500

// PromptOverrides carries optional applicant-provided text appended to prompts.
type PromptOverrides struct {
	UserInstructions string
}

// SystemInstruction returns the fixed rules sent as the model's system instruction.
func SystemInstruction() string {
	return strings.TrimSpace(systemTemplate)
}

// BuildPrompt renders the user message for req.
func BuildPrompt(req Request, o PromptOverrides) string {
	instructions := o.UserInstructions
	if strings.TrimSpace(req.Instructions) != "" {
		instructions = req.Instructions
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Form fields:\n{{FIELDS}}\n\nResume:\n{{RESUME}}\n\nJSON Response:"
	}

	replacer := strings.NewReplacer(
		"{{URL}}", sanitizeLine(req.URL),
		"{{TITLE}}", sanitizeLine(req.Title),
		"{{FIELDS}}", DescribeFields(req.Fields),
		"{{RESUME}}", strings.TrimSpace(req.UserResume),
		"{{INSTRUCTIONS}}", sanitizeUserInstructions(instructions),
	)

	return replacer.Replace(template)
}

// DescribeFields renders descriptors as blank-line separated blocks.
func DescribeFields(fields []form.Descriptor) string {
	blocks := make([]string, 0, len(fields))
	for _, f := range fields {
		var b strings.Builder
		b.WriteString("Field: ")
		b.WriteString(sanitizeLine(fieldTitle(f)))
		b.WriteString("\nType: ")
		b.WriteString(f.Type)
		if f.Required {
			b.WriteString("\nRequired: Yes")
		}
		if len(f.Options) > 0 {
			b.WriteString("\nOptions: ")
			b.WriteString(strings.Join(f.Options, ", "))
		}
		if f.CannotAutoFill {
			b.WriteString("\nCannotAutoFill: Yes")
			if f.Notes != "" {
				b.WriteString("\nNotes: ")
				b.WriteString(f.Notes)
			}
		}
		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, "\n\n")
}

// fieldTitle is the key the model is asked to echo back: label, then name, then id.
func fieldTitle(f form.Descriptor) string {
	switch {
	case f.Label != "":
		return f.Label
	case f.Name != "":
		return f.Name
	default:
		return f.ID
	}
}

// sanitizeUserInstructions keeps instructions as a bullet list, neutralizes square
// brackets that could mimic role markers and caps the total length.
func sanitizeUserInstructions(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "  - none"
	}

	s = strings.NewReplacer("[", "(", "]", ")").Replace(s)

	runes := []rune(s)
	if len(runes) > maxUserInstructionRunes {
		runes = runes[:maxUserInstructionRunes]
	}

	var lines []string
	for _, line := range strings.Split(string(runes), "\n") {
		line = strings.TrimFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		lines = append(lines, "  - "+line)
	}
	if len(lines) == 0 {
		return "  - none"
	}

	return strings.Join(lines, "\n")
}

// sanitizeLine collapses whitespace so values cannot break the prompt layout.
func sanitizeLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
