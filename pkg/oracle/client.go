package oracle

import (
	"context"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client is the text-completion oracle consumed by the router, extractor, and
// follow-up generator. Implementations must honor context cancellation; a
// timed-out call returns an error and callers degrade to their local
// defaults.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Message is a single conversational turn passed as context.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is a single completion request. Model and MaxTokens fall back to
// the client's configured defaults when zero.
type Request struct {
	Model       string
	MaxTokens   int64
	System      string
	History     []Message
	Prompt      string
	Temperature *float64
}

// Response is the oracle's raw text reply.
type Response struct {
	Text  string
	Usage TokenUsage
}

// TokenUsage tracks token consumption across oracle calls.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// LogUsage logs token consumption with structured zap fields.
func (u TokenUsage) LogUsage(model, phase string) {
	zap.L().Debug("oracle usage",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
	)
}

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024
	defaultTimeout   = 30 * time.Second
)

// Option configures the SDK-backed client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

// WithMaxTokens overrides the default per-call output token cap.
func WithMaxTokens(n int64) Option {
	return func(c *sdkClient) {
		c.maxTokens = n
	}
}

// WithTimeout overrides the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *sdkClient) {
		c.timeout = d
	}
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewClient creates an oracle client backed by the Anthropic SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		timeout:   defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *sdkClient) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(req.History, req.Prompt),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "oracle: complete")
	}

	resp := &Response{
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	for _, b := range msg.Content {
		if b.Type == "text" {
			resp.Text += b.Text
		}
	}
	resp.Usage.LogUsage(model, "complete")
	return resp, nil
}

func buildMessages(history []Message, prompt string) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(history)+1)
	for _, m := range history {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out = append(out, sdk.NewAssistantMessage(block))
		default:
			out = append(out, sdk.NewUserMessage(block))
		}
	}
	out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(prompt)))
	return out
}
