package extract

import (
	"fmt"
	"strings"
)

const DivisionSystemPrompt = `You are an estimator's assistant reading construction specifications. You report only what the text states.`

const DivisionExtractionPrompt = `Extract the scope of work for the specification division below. Return a JSON object with these fields:

- "summary": two or three sentences describing the work (string)
- "materials": list of objects {"name", "manufacturer", "standard", "requirement"} (strings, "" when not stated)
- "manufacturers": acceptable manufacturers named in the text (list of strings)
- "requirements": execution requirements such as installation, tolerances, testing, protection (list of strings)
- "submittals": list of objects {"type", "description", "timing"}
- "coordination": work by other trades this division depends on, list of objects {"trade", "item", "timing"}

Rules:
- Quote product names and standards (ASTM, ANSI, UL) exactly as written
- Do not invent manufacturers or standards
- Keep each string under 300 characters
- Use empty lists when the text says nothing about a field

Respond with ONLY the JSON object, no other text.`

// BuildDivisionPrompt wraps the division excerpt with the extraction
// instructions and the division label.
func BuildDivisionPrompt(label, text string) string {
	var sb strings.Builder
	sb.WriteString(DivisionExtractionPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Division: %q\n", label))
	sb.WriteString("---\n")
	sb.WriteString(text)
	return sb.String()
}
