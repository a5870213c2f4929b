package oracle

import "strings"

// ExtractJSON locates a JSON object inside oracle output that may be wrapped
// in markdown code fences or surrounded by commentary. It returns the
// first-{ to last-} substring and whether a candidate object was found at
// all. Callers still parse the result; this only trims the wrapping.
func ExtractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return strings.TrimSpace(text[start : end+1]), true
}
