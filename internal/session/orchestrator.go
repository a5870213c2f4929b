// Package session orchestrates multi-turn conversations: routing new
// queries, driving in-progress collections, and handing confirmed requests
// to the prediction service.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mobility-advisor/internal/collect"
	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/internal/resilience"
	"github.com/sells-group/mobility-advisor/internal/schema"
	"github.com/sells-group/mobility-advisor/internal/store"
	"github.com/sells-group/mobility-advisor/pkg/oracle"
	"github.com/sells-group/mobility-advisor/pkg/predict"
)

const generalSystemPrompt = `You are a helpful global mobility advisor. Answer the user's question about international assignments, relocation, and mobility programs briefly and clearly. If the question is outside that area, say what you can help with instead.`

// Router classifies a free-text query.
type Router interface {
	Route(ctx context.Context, input string) model.RoutingDecision
}

// Extractor pulls field values out of an utterance.
type Extractor interface {
	Extract(ctx context.Context, fields []schema.Field, captured map[string]string, utterance string, history []model.Turn) *model.ExtractionResult
}

// FollowUp writes the next conversational question for missing fields.
type FollowUp interface {
	Generate(ctx context.Context, domain model.Domain, fields []schema.Field, answers map[string]string, clarifications []model.Clarification) string
}

// Collector drives scripted question-by-question collection.
type Collector interface {
	Start(domain model.Domain, c *model.CollectionState) string
	ProcessAnswer(ctx context.Context, domain model.Domain, c *model.CollectionState, input string) (string, bool)
}

// Reply is one assistant turn.
type Reply struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Orchestrator owns the turn loop. Each session's state is loaded, mutated
// under a per-session lock, and persisted before the reply returns.
type Orchestrator struct {
	registry   *schema.Registry
	router     Router
	extractor  Extractor
	followUp   FollowUp
	sequential Collector
	predictor  predict.Client
	oracle     oracle.Client
	store      store.SessionStore
	mode       model.Mode
	retry      resilience.RetryConfig

	locks sync.Map // session id -> *sync.Mutex
}

// Deps collects the orchestrator's collaborators.
type Deps struct {
	Registry   *schema.Registry
	Router     Router
	Extractor  Extractor
	FollowUp   FollowUp
	Sequential Collector
	Predictor  predict.Client
	Oracle     oracle.Client
	Store      store.SessionStore
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMode sets the collection mode for new sessions.
func WithMode(m model.Mode) Option {
	return func(o *Orchestrator) {
		o.mode = m
	}
}

// New creates an Orchestrator.
func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:   deps.Registry,
		router:     deps.Router,
		extractor:  deps.Extractor,
		followUp:   deps.FollowUp,
		sequential: deps.Sequential,
		predictor:  deps.Predictor,
		oracle:     deps.Oracle,
		store:      deps.Store,
		mode:       model.ModeConversational,
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleMessage processes one user turn. An empty sessionID starts a new
// session; the returned Reply carries the id to use on subsequent turns.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string, attachments []model.Attachment) (*Reply, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	mu := o.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	s, err := o.store.Get(ctx, sessionID)
	if eris.Is(err, store.ErrNotFound) {
		s = model.NewSessionState(sessionID, o.mode)
		err = nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "session: load")
	}

	reply := o.dispatch(ctx, s, text, attachments)

	s.PushTurn("user", text)
	s.PushTurn("assistant", reply)

	if err := o.store.Put(ctx, s); err != nil {
		return nil, eris.Wrap(err, "session: save")
	}

	return &Reply{SessionID: sessionID, Text: reply}, nil
}

// dispatch applies the strict turn priority: an in-progress collection
// first, then a pending start confirmation or both-domains choice, then
// fresh routing. Exactly one branch runs per turn.
func (o *Orchestrator) dispatch(ctx context.Context, s *model.SessionState, text string, attachments []model.Attachment) string {
	if domain, c, ok := s.ActiveCollection(); ok {
		return o.continueCollection(ctx, s, domain, c, text, attachments)
	}
	if domain := s.AwaitingStartConfirm; domain != "" {
		return o.resolveStartConfirm(ctx, s, domain, text, attachments)
	}
	if s.AwaitingBothChoice {
		return o.resolveBothChoice(ctx, s, text, attachments)
	}
	return o.routeNewQuery(ctx, s, text, attachments)
}

func (o *Orchestrator) routeNewQuery(ctx context.Context, s *model.SessionState, text string, attachments []model.Attachment) string {
	dec := o.router.Route(ctx, text)
	zap.L().Info("session: routed",
		zap.String("session_id", s.ID),
		zap.String("destination", string(dec.Destination)),
		zap.String("method", string(dec.Method)),
	)

	if domain, ok := dec.Destination.Domain(); ok {
		s.AwaitingStartConfirm = domain
		return collect.StartConfirmMessage(domain)
	}

	switch dec.Destination {
	case model.DestBoth:
		s.AwaitingBothChoice = true
		return collect.BothChoiceMessage
	default:
		if dec.Method == model.MethodDirectPhrase {
			return collect.HelpMessage
		}
		if !s.IntroShown {
			s.IntroShown = true
			return collect.IntroMessage
		}
		return o.generalAnswer(ctx, s, text)
	}
}

// resolveStartConfirm reads the reply to a pending "start this track?"
// prompt. The confirming utterance itself feeds the first extraction pass,
// so "yes, moving from London to Munich" is not wasted.
func (o *Orchestrator) resolveStartConfirm(ctx context.Context, s *model.SessionState, domain model.Domain, text string, attachments []model.Attachment) string {
	switch collect.ParseStartReply(text) {
	case collect.ConfirmYes:
		s.AwaitingStartConfirm = ""
		return o.startCollection(ctx, s, domain, text, attachments)
	case collect.ConfirmNo:
		s.AwaitingStartConfirm = ""
		return collect.HelpMessage
	default:
		return "I didn't catch that. " + collect.StartConfirmMessage(domain)
	}
}

// startCollection opens a domain's collection and consumes the triggering
// utterance, which often already carries field values.
func (o *Orchestrator) startCollection(ctx context.Context, s *model.SessionState, domain model.Domain, text string, attachments []model.Attachment) string {
	s.ClearCollection(domain)
	c := s.Collection(domain)

	fields := o.registry.Fields(domain)
	if len(fields) == 0 {
		c.Phase = model.PhaseCompleted
		return o.handOff(ctx, s, domain, c)
	}

	if s.Mode == model.ModeSequential {
		return o.sequential.Start(domain, c)
	}
	return o.advanceConversational(ctx, s, domain, c, text, attachments)
}

func (o *Orchestrator) continueCollection(ctx context.Context, s *model.SessionState, domain model.Domain, c *model.CollectionState, text string, attachments []model.Attachment) string {
	if s.Mode == model.ModeSequential {
		reply, done := o.sequential.ProcessAnswer(ctx, domain, c, text)
		if done {
			return o.handOff(ctx, s, domain, c)
		}
		return reply
	}

	if c.Phase == model.PhaseAwaitingConfirmation {
		return o.resolveConfirmation(ctx, s, domain, c, text)
	}
	return o.advanceConversational(ctx, s, domain, c, text, attachments)
}

// advanceConversational extracts from one utterance, merges, and either asks
// a follow-up or presents the confirmation summary.
func (o *Orchestrator) advanceConversational(ctx context.Context, s *model.SessionState, domain model.Domain, c *model.CollectionState, text string, attachments []model.Attachment) string {
	fields := o.registry.Fields(domain)
	utterance := combineInput(text, attachments)

	res := o.extractor.Extract(ctx, fields, c.Answers, utterance, s.RecentHistory(3))
	c.MergeExtraction(res)

	if collect.IsComplete(fields, c.Answers) {
		c.Phase = model.PhaseAwaitingConfirmation
		return collect.ConfirmationSummary(domain, fields, c.Answers)
	}
	return o.followUp.Generate(ctx, domain, fields, c.Answers, res.Clarifications)
}

func (o *Orchestrator) resolveConfirmation(ctx context.Context, s *model.SessionState, domain model.Domain, c *model.CollectionState, text string) string {
	fields := o.registry.Fields(domain)
	switch collect.ParseConfirmation(text) {
	case collect.ConfirmYes:
		c.Phase = model.PhaseCompleted
		return o.handOff(ctx, s, domain, c)
	case collect.ConfirmNo:
		c.Phase = model.PhaseAsking
		return "No problem. Tell me what to change and I'll update it."
	default:
		return collect.ConfirmationSummary(domain, fields, c.Answers)
	}
}

func (o *Orchestrator) resolveBothChoice(ctx context.Context, s *model.SessionState, text string, attachments []model.Attachment) string {
	normalized := strings.ToLower(text)
	switch {
	case strings.Contains(normalized, "comp"), strings.Contains(normalized, "salary"):
		s.AwaitingBothChoice = false
		return o.startCollection(ctx, s, model.DomainCompensation, text, attachments)
	case strings.Contains(normalized, "pol"):
		s.AwaitingBothChoice = false
		return o.startCollection(ctx, s, model.DomainPolicy, text, attachments)
	default:
		return collect.BothChoiceMessage
	}
}

// handOff sends a confirmed collection to the prediction service. Service
// failure degrades to an oracle answer, then to the apology.
func (o *Orchestrator) handOff(ctx context.Context, s *model.SessionState, domain model.Domain, c *model.CollectionState) string {
	answers := c.Answers
	s.ClearCollection(domain)

	var reply string
	var err error
	switch domain {
	case model.DomainCompensation:
		params := predict.BuildCompensationParams(answers)
		var res *predict.Result
		err = resilience.Do(ctx, o.retry, func(ctx context.Context) error {
			var callErr error
			res, callErr = o.predictor.PredictCompensation(ctx, params)
			return callErr
		})
		if err == nil {
			reply = predict.FormatCompensation(params, res)
		}
	case model.DomainPolicy:
		params := predict.BuildPolicyParams(answers)
		var res *predict.Result
		err = resilience.Do(ctx, o.retry, func(ctx context.Context) error {
			var callErr error
			res, callErr = o.predictor.AnalyzePolicy(ctx, params)
			return callErr
		})
		if err == nil {
			reply = predict.FormatPolicy(params, res)
		}
	default:
		return collect.ApologyMessage
	}

	if err != nil {
		zap.L().Warn("session: prediction service failed, falling back",
			zap.String("session_id", s.ID),
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
		return o.oracleFallback(ctx, domain, answers)
	}
	return reply
}

// oracleFallback asks the oracle to estimate directly from the collected
// answers when the prediction service is unavailable.
func (o *Orchestrator) oracleFallback(ctx context.Context, domain model.Domain, answers map[string]string) string {
	var b strings.Builder
	for _, key := range o.registry.Keys(domain) {
		if v := answers[key]; v != "" {
			b.WriteString("- " + key + ": " + v + "\n")
		}
	}

	prompt := "Using these details, give your best " + string(domain) + " guidance for this move. Note that exact figures are unavailable right now.\n\n" + b.String()
	resp, err := o.oracle.Complete(ctx, oracle.Request{
		MaxTokens: 1024,
		System:    generalSystemPrompt,
		Prompt:    prompt,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			zap.L().Error("session: oracle fallback failed", zap.Error(err))
		}
		return collect.ApologyMessage
	}
	return strings.TrimSpace(resp.Text)
}

// generalAnswer handles queries outside both domains.
func (o *Orchestrator) generalAnswer(ctx context.Context, s *model.SessionState, text string) string {
	resp, err := o.oracle.Complete(ctx, oracle.Request{
		MaxTokens: 1024,
		System:    generalSystemPrompt,
		History:   toOracleHistory(s.RecentHistory(4)),
		Prompt:    text,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			zap.L().Warn("session: general answer failed", zap.Error(err))
		}
		return collect.ApologyMessage
	}
	return strings.TrimSpace(resp.Text)
}

func (o *Orchestrator) lockFor(sessionID string) *sync.Mutex {
	v, _ := o.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// combineInput joins the typed message with any attachment text so the
// extractor sees both.
func combineInput(text string, attachments []model.Attachment) string {
	if len(attachments) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for _, a := range attachments {
		b.WriteString("\n\n[Attached: ")
		b.WriteString(a.Name)
		b.WriteString("]\n")
		b.WriteString(a.Content)
	}
	return b.String()
}

func toOracleHistory(turns []model.Turn) []oracle.Message {
	msgs := make([]oracle.Message, len(turns))
	for i, t := range turns {
		msgs[i] = oracle.Message{Role: t.Role, Content: t.Content}
	}
	return msgs
}
