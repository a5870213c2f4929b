package collect

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/internal/schema"
	"github.com/sells-group/mobility-advisor/pkg/oracle"
)

const followUpSystemPrompt = `You are a friendly global mobility advisor collecting details for a request. Write one short, natural message that acknowledges what the user just shared and asks for the listed missing details. Ask for at most two things in one message. No preamble, no JSON.`

const followUpPromptTemplate = `Request type: %s

Captured so far:
%s

Still needed:
%s

Suggested clarifications:
%s

Write the next message to the user.`

// FollowUpGenerator produces the next conversational question for a
// partially filled collection. Generation never fails: oracle errors degrade
// to a scripted fallback question.
type FollowUpGenerator struct {
	oracle oracle.Client
	model  string
}

// NewFollowUpGenerator creates a generator backed by the given oracle.
func NewFollowUpGenerator(client oracle.Client) *FollowUpGenerator {
	return &FollowUpGenerator{oracle: client}
}

// WithModel sets the oracle model used for follow-up generation.
func (g *FollowUpGenerator) WithModel(m string) *FollowUpGenerator {
	g.model = m
	return g
}

// Generate writes the next follow-up message for the missing fields. The
// extractor's clarifications, when present, steer the phrasing.
func (g *FollowUpGenerator) Generate(ctx context.Context, domain model.Domain, fields []schema.Field, answers map[string]string, clarifications []model.Clarification) string {
	missing := MissingFields(fields, answers)
	if len(missing) == 0 {
		return ""
	}

	if g.oracle != nil {
		prompt := fmt.Sprintf(followUpPromptTemplate,
			domain,
			describeAnswers(fields, answers),
			strings.Join(missing, "\n"),
			describeClarifications(clarifications),
		)
		resp, err := g.oracle.Complete(ctx, oracle.Request{
			Model:     g.model,
			MaxTokens: 512,
			System:    followUpSystemPrompt,
			Prompt:    prompt,
		})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return strings.TrimSpace(resp.Text)
		}
		if err != nil {
			zap.L().Warn("collect: follow-up generation failed", zap.Error(err))
		}
	}

	return fallbackFollowUp(fields, missing)
}

// fallbackFollowUp builds a scripted question for the first missing field.
func fallbackFollowUp(fields []schema.Field, missing []string) string {
	first := missing[0]
	for _, f := range fields {
		if f.Key == first && f.Question != "" {
			return f.Question
		}
	}
	return fmt.Sprintf("Could you tell me your %s?", strings.ToLower(first))
}

func describeAnswers(fields []schema.Field, answers map[string]string) string {
	var b strings.Builder
	for _, f := range fields {
		if v := strings.TrimSpace(answers[f.Key]); v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", f.Key, v)
		}
	}
	if b.Len() == 0 {
		return "(nothing yet)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeClarifications(clarifications []model.Clarification) string {
	if len(clarifications) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, c := range clarifications {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", c.Field, c.Question, c.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}
