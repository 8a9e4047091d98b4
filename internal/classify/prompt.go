package classify

import (
	"fmt"
	"strings"
)

const systemPrompt = `You classify excerpts of construction specifications by CSI MasterFormat division. Answer with JSON only.`

// buildPrompt asks whether one tile holds content for target.
func buildPrompt(target Target, tile string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Does the following excerpt contain specification content for Division %s (%s)?\n\n", target.Code, target.Label)
	if len(target.Keywords) > 0 {
		sb.WriteString("Typical terms for this division: ")
		sb.WriteString(strings.Join(target.Keywords, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString(`Content counts only when the excerpt specifies work of this division: a DIVISION or SECTION heading with its number, PART 1/2/3 text, products, or execution requirements. A passing reference from another division does not count.

Return a JSON object:
{"hasContent": true|false, "confidence": "HIGH"|"MEDIUM"|"LOW", "evidence": ["headings or phrases you matched"], "approximateStart": <character offset where the division content starts, or null>, "approximateEnd": <character offset where it ends, or null>}

Respond with ONLY the JSON object, no other text.`)
	sb.WriteString("\n\n---\n")
	sb.WriteString(tile)
	return sb.String()
}
