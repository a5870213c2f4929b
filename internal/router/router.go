package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/pkg/oracle"
)

const classifySystemPrompt = `You are a routing classifier for a global mobility assistant. Classify the user's query into exactly one destination. Respond with a valid JSON object: {"destination": "<name>"} and nothing else.`

const classifyPromptTemplate = `Destinations:
- compensation: Questions about employee compensation packages for global mobility: salary calculations, cost-of-living adjustments, housing allowances, hardship pay, currency impact, net pay, and other financial aspects of a relocation package.
- policy: Questions about corporate global mobility policies: assignment rules, benefits structures, policy swim lanes, visas, immigration, compliance, and program guidelines.
- both: Complex queries needing combined policy and compensation understanding, such as finding the optimal or cheapest way to structure an assignment.
- fallback: Vague or off-topic queries, or questions about what this system can do.

User query: %q

Return JSON: {"destination": "<compensation|policy|both|fallback>"}`

// Router classifies free-text queries into one of four destinations. It is
// stateless across calls and never returns an error: any failure degrades to
// the fallback destination.
type Router struct {
	oracle   oracle.Client
	keywords map[model.Destination][]string
	model    string
}

// Option configures a Router.
type Option func(*Router)

// WithKeywords replaces the default keyword lists.
func WithKeywords(kw map[model.Destination][]string) Option {
	return func(r *Router) {
		r.keywords = kw
	}
}

// WithModel sets the oracle model used for classification.
func WithModel(m string) Option {
	return func(r *Router) {
		r.model = m
	}
}

// New creates a Router backed by the given oracle.
func New(client oracle.Client, opts ...Option) *Router {
	r := &Router{
		oracle:   client,
		keywords: defaultKeywords,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Route decides where a query goes. Layered strategy: direct phrases, then
// keyword scoring, then oracle classification, then error fallback. Always
// returns exactly one of the four destinations.
func (r *Router) Route(ctx context.Context, input string) model.RoutingDecision {
	normalized := strings.ToLower(strings.TrimSpace(input))

	if dest, ok := r.matchDirect(normalized); ok {
		zap.L().Debug("router: direct phrase",
			zap.String("input", normalized),
			zap.String("destination", string(dest)),
		)
		return model.RoutingDecision{Destination: dest, Method: model.MethodDirectPhrase}
	}

	if dest, score, ok := r.scoreKeywords(normalized); ok {
		zap.L().Debug("router: keyword match",
			zap.String("input", normalized),
			zap.String("destination", string(dest)),
			zap.Int("score", score),
		)
		return model.RoutingDecision{Destination: dest, Method: model.MethodKeyword, Score: score}
	}

	dest, err := r.classify(ctx, input)
	if err != nil {
		zap.L().Warn("router: oracle classification failed", zap.Error(err))
		return model.RoutingDecision{Destination: model.DestFallback, Method: model.MethodErrorFallback}
	}
	return model.RoutingDecision{Destination: dest, Method: model.MethodOracle}
}

// matchDirect checks the exact-phrase shortcuts and the contained help
// phrases.
func (r *Router) matchDirect(normalized string) (model.Destination, bool) {
	if dest, ok := directPhrases[normalized]; ok {
		return dest, true
	}
	for _, phrase := range helpPhrases {
		if strings.Contains(normalized, phrase) {
			return model.DestFallback, true
		}
	}
	return "", false
}

// scoreKeywords sums keyword scores per destination and returns the winner.
// Ties break by fixed priority order: a later destination must score strictly
// higher to displace the current best.
func (r *Router) scoreKeywords(normalized string) (model.Destination, int, bool) {
	best := model.Destination("")
	bestScore := 0

	for _, dest := range destinationPriority {
		keywords, ok := r.keywords[dest]
		if !ok {
			continue
		}
		score := 0
		for _, kw := range keywords {
			if !strings.Contains(normalized, kw) {
				continue
			}
			switch {
			case strings.Contains(kw, " "):
				score += 3
			case len(kw) > 6:
				score += 2
			default:
				score++
			}
		}
		if score > bestScore {
			best = dest
			bestScore = score
		}
	}

	if bestScore == 0 {
		return "", 0, false
	}
	return best, bestScore, true
}

// classify delegates to the oracle for queries the cheap layers cannot place.
func (r *Router) classify(ctx context.Context, input string) (model.Destination, error) {
	resp, err := r.oracle.Complete(ctx, oracle.Request{
		Model:     r.model,
		MaxTokens: 128,
		System:    classifySystemPrompt,
		Prompt:    fmt.Sprintf(classifyPromptTemplate, input),
	})
	if err != nil {
		return "", err
	}

	raw, ok := oracle.ExtractJSON(resp.Text)
	if !ok {
		return "", fmt.Errorf("router: no JSON object in oracle response")
	}

	var parsed struct {
		Destination string `json:"destination"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("router: parse oracle response: %w", err)
	}

	switch dest := model.Destination(strings.ToLower(strings.TrimSpace(parsed.Destination))); dest {
	case model.DestCompensation, model.DestPolicy, model.DestBoth, model.DestFallback:
		return dest, nil
	default:
		return "", fmt.Errorf("router: unknown destination %q", parsed.Destination)
	}
}
