package collect

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/mobility-advisor/internal/schema"
	"github.com/sells-group/mobility-advisor/pkg/oracle"
)

const reviewSystemPrompt = `You review a single answer a user typed into a form. If the answer has an obvious typo or misspelling for the given field, respond with exactly "CORRECTED: <fixed answer>". If the answer is ambiguous, respond with "SUGGESTIONS: <option>, <option>". Otherwise respond with exactly "OK". No other output.`

const reviewPromptTemplate = `Field: %s (%s)
Expected format: %s
Answer: %q`

// AnswerReview is the outcome of spell-checking one answer. Value always
// holds a usable answer; Suggestions, when present, are alternatives the
// user should pick from.
type AnswerReview struct {
	Value       string
	Corrected   bool
	Suggestions []string
}

// Reviewer runs an oracle spell-check over individual answers. It fails
// open: any oracle error or unrecognized output keeps the user's answer
// untouched.
type Reviewer struct {
	oracle oracle.Client
	model  string
}

// NewReviewer creates a Reviewer backed by the given oracle.
func NewReviewer(client oracle.Client) *Reviewer {
	return &Reviewer{oracle: client}
}

// Review checks one answer for the given field.
func (r *Reviewer) Review(ctx context.Context, f schema.Field, answer string) AnswerReview {
	keep := AnswerReview{Value: answer}
	if r == nil || r.oracle == nil || strings.TrimSpace(answer) == "" {
		return keep
	}

	resp, err := r.oracle.Complete(ctx, oracle.Request{
		Model:     r.model,
		MaxTokens: 128,
		System:    reviewSystemPrompt,
		Prompt:    fmt.Sprintf(reviewPromptTemplate, f.Key, f.Description, f.Format, answer),
	})
	if err != nil {
		zap.L().Debug("collect: answer review failed", zap.Error(err))
		return keep
	}

	text := strings.TrimSpace(resp.Text)
	switch {
	case strings.HasPrefix(text, "CORRECTED:"):
		fixed := strings.TrimSpace(strings.TrimPrefix(text, "CORRECTED:"))
		if fixed == "" {
			return keep
		}
		return AnswerReview{Value: fixed, Corrected: true}
	case strings.HasPrefix(text, "SUGGESTIONS:"):
		raw := strings.TrimPrefix(text, "SUGGESTIONS:")
		var suggestions []string
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				suggestions = append(suggestions, s)
			}
		}
		return AnswerReview{Value: answer, Suggestions: suggestions}
	default:
		return keep
	}
}
