package tiler

import "strings"

// EstimateTokens gives a rough token count for logging tile sizes. Spec
// text is dense with section numbers and dot leaders, so the word estimate
// is floored by a bytes/4 estimate.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byWords := len(strings.Fields(text)) * 4 / 3
	byBytes := (len(text) + 3) / 4
	return max(byWords, byBytes, 1)
}
