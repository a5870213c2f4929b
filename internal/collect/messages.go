package collect

import (
	"fmt"
	"strings"

	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/internal/schema"
)

// IntroMessage is the full guidance shown at most once per session, the
// first time a query falls through to the fallback route.
const IntroMessage = `Hi, I'm your global mobility advisor. I can build compensation estimates for international assignments and answer questions about mobility policy. Tell me about the move you're planning, or just say "salary" or "policy" to get started.`

// HelpMessage answers capability questions and vague queries.
const HelpMessage = `I can help with two things:
- Compensation: estimate an assignment package (salary, cost of living, housing) for a specific move.
- Policy: explain mobility policy topics like assignment types, visas, and compliance.

Ask me anything about a planned move, or say "salary" or "policy" to begin.`

// BothChoiceMessage asks which track to start when a query spans both
// domains.
const BothChoiceMessage = `That touches both compensation and policy. Which would you like to work through first? Reply "compensation" or "policy".`

// StartConfirmMessage asks whether to begin a domain's questionnaire before
// any collection state is created.
func StartConfirmMessage(domain model.Domain) string {
	switch domain {
	case model.DomainCompensation:
		return `It sounds like you're after a compensation estimate. Shall I start the questionnaire? (Reply "yes" to continue or "no" if this isn't what you need.)`
	case model.DomainPolicy:
		return `It sounds like you have a policy question. Shall I start the policy questionnaire? (Reply "yes" to continue or "no" if this isn't what you need.)`
	default:
		return fmt.Sprintf(`Would you like me to start the %s questionnaire? Reply "yes" to continue.`, domain)
	}
}

// ApologyMessage is the terminal fallback when every answer path has failed.
const ApologyMessage = `I'm sorry, I wasn't able to process that just now. Please try again in a moment.`

// ConfirmPrompt asks the user to confirm collected values.
const ConfirmPrompt = `Is this correct? (yes / no)`

// ConfirmationSummary renders the collected answers as a bullet list in
// schema order. Deterministic: the same answers always render identically.
func ConfirmationSummary(domain model.Domain, fields []schema.Field, answers map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I have for your %s request:\n", domain)
	for _, f := range fields {
		if v := strings.TrimSpace(answers[f.Key]); v != "" {
			fmt.Fprintf(&b, "• %s: %s\n", f.Key, v)
		}
	}
	b.WriteString("\n")
	b.WriteString(ConfirmPrompt)
	return b.String()
}

// QuestionPrompt formats one scripted question, with option and format hints
// when the field carries them.
func QuestionPrompt(index, total int, f schema.Field, existing string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d of %d: %s", index+1, total, f.Question)
	if len(f.Options) > 0 {
		fmt.Fprintf(&b, "\nOptions: %s", strings.Join(f.Options, ", "))
	}
	if f.Format != "" {
		fmt.Fprintf(&b, "\nFormat: %s", f.Format)
	}
	if existing != "" {
		fmt.Fprintf(&b, "\nCurrent answer: %s (press enter to keep)", existing)
	}
	return b.String()
}
