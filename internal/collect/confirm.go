package collect

import "strings"

// Confirmation vocabulary. Matching is exact on the lowercased, trimmed
// input; anything outside both sets is neither and triggers a re-prompt.
var (
	affirmatives = map[string]bool{
		"yes": true, "y": true, "confirm": true, "confirmed": true,
		"correct": true, "ok": true, "okay": true,
	}
	negatives = map[string]bool{
		"no": true, "n": true, "edit": true, "change": true,
		"incorrect": true, "wrong": true,
	}
)

// ConfirmReply classifies a user's answer to a confirmation prompt.
type ConfirmReply int

const (
	ConfirmUnclear ConfirmReply = iota
	ConfirmYes
	ConfirmNo
)

// ParseConfirmation classifies input against the confirmation vocabulary.
func ParseConfirmation(input string) ConfirmReply {
	normalized := strings.ToLower(strings.TrimSpace(input))
	switch {
	case affirmatives[normalized]:
		return ConfirmYes
	case negatives[normalized]:
		return ConfirmNo
	default:
		return ConfirmUnclear
	}
}

// Start-confirmation vocabulary. Matched as substrings, affirmatives first,
// so replies like "yes please" or "sure, go ahead" pass.
var (
	startAffirmatives = []string{"yes", "start", "ok", "sure", "proceed"}
	startNegatives    = []string{"no", "not", "different", "wrong"}
)

// ParseStartReply classifies the answer to a "start this track?" prompt.
func ParseStartReply(input string) ConfirmReply {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, w := range startAffirmatives {
		if strings.Contains(normalized, w) {
			return ConfirmYes
		}
	}
	for _, w := range startNegatives {
		if strings.Contains(normalized, w) {
			return ConfirmNo
		}
	}
	return ConfirmUnclear
}
