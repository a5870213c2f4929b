package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/internal/schema"
	"github.com/sells-group/mobility-advisor/pkg/oracle"
)

const extractSystemPrompt = `You are a data extraction assistant for a global mobility advisor. Extract only values the user actually stated. Never guess or invent values. Respond with a single valid JSON object and nothing else.`

const extractPromptTemplate = `Extract the following fields from the user's message. Use the recent conversation only to resolve references like "there" or "the same".

Fields to extract:
%s

Already captured (do not re-extract unless the user changes them):
%s

Recent conversation:
%s

User message: %q

Respond with JSON in exactly this shape:
{
  "extracted": {"<field>": "<value>", ...},
  "confidence": {"<field>": <0.0-1.0>, ...},
  "missing": ["<field>", ...],
  "clarifications": [{"field": "<field>", "question": "<question>", "reason": "<reason>"}]
}

Rules:
- Include a field in "extracted" only when the user's message clearly states its value.
- "missing" lists every field not yet captured.
- Add a clarification only when the user mentioned a field ambiguously.`

// historyWindow is how many recent turns are shown to the oracle.
const historyWindow = 3

// Extractor pulls structured field values out of free-form utterances. It
// never fails: any oracle or parse error degrades to a result that captures
// nothing and marks every uncaptured field missing.
type Extractor struct {
	oracle oracle.Client
	model  string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithModel sets the oracle model used for extraction.
func WithModel(m string) Option {
	return func(e *Extractor) {
		e.model = m
	}
}

// New creates an Extractor backed by the given oracle.
func New(client oracle.Client, opts ...Option) *Extractor {
	e := &Extractor{oracle: client}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract parses one utterance against the given schema fields. captured
// holds values already collected this session and steers the prompt, but the
// returned result always partitions the full schema: every field key appears
// in exactly one of Extracted and Missing.
func (e *Extractor) Extract(ctx context.Context, fields []schema.Field, captured map[string]string, utterance string, history []model.Turn) *model.ExtractionResult {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}

	prompt := fmt.Sprintf(extractPromptTemplate,
		describeFields(fields),
		describeCaptured(keys, captured),
		describeHistory(history),
		utterance,
	)

	resp, err := e.oracle.Complete(ctx, oracle.Request{
		Model:     e.model,
		MaxTokens: 1024,
		System:    extractSystemPrompt,
		Prompt:    prompt,
	})
	if err != nil {
		zap.L().Warn("extract: oracle call failed", zap.Error(err))
		return recoveryResult(keys)
	}

	raw, ok := oracle.ExtractJSON(resp.Text)
	if !ok {
		zap.L().Warn("extract: no JSON object in oracle response")
		return recoveryResult(keys)
	}

	var parsed struct {
		Extracted      map[string]string     `json:"extracted"`
		Confidence     map[string]float64    `json:"confidence"`
		Missing        []string              `json:"missing"`
		Clarifications []model.Clarification `json:"clarifications"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		zap.L().Warn("extract: parse oracle response", zap.Error(err))
		return recoveryResult(keys)
	}

	return normalize(keys, parsed.Extracted, parsed.Confidence, parsed.Clarifications)
}

// normalize filters the oracle output down to schema fields and rebuilds the
// missing list so the completeness partition holds regardless of what the
// oracle claimed.
func normalize(keys []string, extracted map[string]string, confidence map[string]float64, clarifications []model.Clarification) *model.ExtractionResult {
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}

	res := &model.ExtractionResult{
		Extracted:  make(map[string]string),
		Confidence: make(map[string]float64),
	}
	for field, value := range extracted {
		value = strings.TrimSpace(value)
		if !known[field] || value == "" {
			continue
		}
		res.Extracted[field] = value
		if c, ok := confidence[field]; ok {
			res.Confidence[field] = c
		}
	}
	for _, c := range clarifications {
		if known[c.Field] {
			res.Clarifications = append(res.Clarifications, c)
		}
	}
	for _, k := range keys {
		if res.Extracted[k] == "" {
			res.Missing = append(res.Missing, k)
		}
	}
	return res
}

// recoveryResult is the degraded outcome for any extraction failure: nothing
// extracted, every schema field missing.
func recoveryResult(keys []string) *model.ExtractionResult {
	return model.NewExtractionResult(keys)
}

func describeFields(fields []schema.Field) string {
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s: %s", f.Key, f.Description)
		if len(f.Options) > 0 {
			fmt.Fprintf(&b, " (one of: %s)", strings.Join(f.Options, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeCaptured(keys []string, captured map[string]string) string {
	var b strings.Builder
	for _, k := range keys {
		if v := captured[k]; v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}
	if b.Len() == 0 {
		return "(none)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeHistory(history []model.Turn) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
