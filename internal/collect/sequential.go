package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/internal/schema"
)

// Sequential walks a domain's schema one scripted question at a time,
// then shows a confirmation summary and runs the confirm/edit loop.
type Sequential struct {
	registry *schema.Registry
	reviewer *Reviewer
}

// SequentialOption configures a Sequential collector.
type SequentialOption func(*Sequential)

// WithReviewer enables oracle spell-checking of answers.
func WithReviewer(r *Reviewer) SequentialOption {
	return func(s *Sequential) {
		s.reviewer = r
	}
}

// NewSequential creates a collector over the given registry.
func NewSequential(registry *schema.Registry, opts ...SequentialOption) *Sequential {
	s := &Sequential{registry: registry}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start begins collection for a domain and returns the first prompt. A
// domain with no fields completes immediately and returns an empty prompt.
func (s *Sequential) Start(domain model.Domain, c *model.CollectionState) string {
	fields := s.registry.Fields(domain)
	if len(fields) == 0 {
		c.Phase = model.PhaseCompleted
		return ""
	}
	c.Phase = model.PhaseAsking
	c.QuestionIndex = 0
	f := fields[0]
	return QuestionPrompt(0, len(fields), f, c.Answers[f.Key])
}

// ProcessAnswer consumes one user turn. done is true once the user has
// confirmed the full set of answers; the empty reply then signals the caller
// to hand the collection off.
func (s *Sequential) ProcessAnswer(ctx context.Context, domain model.Domain, c *model.CollectionState, input string) (reply string, done bool) {
	fields := s.registry.Fields(domain)
	if len(fields) == 0 {
		c.Phase = model.PhaseCompleted
		return "", true
	}

	switch c.Phase {
	case model.PhaseAwaitingConfirmation:
		return s.processConfirmation(domain, fields, c, input)
	default:
		return s.processAnswer(ctx, domain, fields, c, input), false
	}
}

func (s *Sequential) processAnswer(ctx context.Context, domain model.Domain, fields []schema.Field, c *model.CollectionState, input string) string {
	if c.QuestionIndex >= len(fields) {
		c.QuestionIndex = len(fields) - 1
	}
	f := fields[c.QuestionIndex]
	answer := strings.TrimSpace(input)

	var note string
	switch {
	case answer == "" && c.Answers[f.Key] != "":
		// Blank during an edit pass keeps the existing answer.
	case answer == "":
		return fmt.Sprintf("I need an answer for this one.\n\n%s",
			QuestionPrompt(c.QuestionIndex, len(fields), f, ""))
	default:
		review := s.reviewer.Review(ctx, f, answer)
		if len(review.Suggestions) > 0 {
			return fmt.Sprintf("Did you mean: %s? Please type your answer again.\n\n%s",
				strings.Join(review.Suggestions, ", "),
				QuestionPrompt(c.QuestionIndex, len(fields), f, c.Answers[f.Key]))
		}
		if review.Corrected {
			note = fmt.Sprintf("I've recorded that as %q.\n\n", review.Value)
		}
		if c.Answers == nil {
			c.Answers = make(map[string]string)
		}
		c.Answers[f.Key] = review.Value
	}

	c.QuestionIndex++
	if c.QuestionIndex >= len(fields) {
		c.Phase = model.PhaseAwaitingConfirmation
		return note + ConfirmationSummary(domain, fields, c.Answers)
	}
	next := fields[c.QuestionIndex]
	return note + QuestionPrompt(c.QuestionIndex, len(fields), next, c.Answers[next.Key])
}

func (s *Sequential) processConfirmation(domain model.Domain, fields []schema.Field, c *model.CollectionState, input string) (string, bool) {
	switch ParseConfirmation(input) {
	case ConfirmYes:
		c.Phase = model.PhaseCompleted
		return "", true
	case ConfirmNo:
		c.ResetForEdit()
		f := fields[0]
		return fmt.Sprintf("No problem, let's go through them again.\n\n%s",
			QuestionPrompt(0, len(fields), f, c.Answers[f.Key])), false
	default:
		return ConfirmationSummary(domain, fields, c.Answers), false
	}
}
