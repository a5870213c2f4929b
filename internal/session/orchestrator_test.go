package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mobility-advisor/internal/collect"
	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/internal/schema"
	"github.com/sells-group/mobility-advisor/internal/store"
	"github.com/sells-group/mobility-advisor/pkg/oracle"
	"github.com/sells-group/mobility-advisor/pkg/predict"
)

func testRegistry() *schema.Registry {
	return schema.NewRegistry(map[model.Domain][]schema.Field{
		model.DomainCompensation: {
			{Key: "Origin Location", Question: "Where are you moving from?"},
			{Key: "Destination Location", Question: "Where are you moving to?"},
			{Key: "Current Compensation", Question: "What is your current salary?"},
		},
		model.DomainPolicy: {
			{Key: "Origin Country", Question: "Which country from?"},
			{Key: "Destination Country", Question: "Which country to?"},
		},
	})
}

type fixture struct {
	router    *mockRouter
	extractor *mockExtractor
	followUp  *mockFollowUp
	collector *mockCollector
	predictor *mockPredictor
	oracle    *mockOracle
	store     *store.MemoryStore
	orch      *Orchestrator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		router:    new(mockRouter),
		extractor: new(mockExtractor),
		followUp:  new(mockFollowUp),
		collector: new(mockCollector),
		predictor: new(mockPredictor),
		oracle:    new(mockOracle),
		store:     store.NewMemory(),
	}
	f.orch = New(Deps{
		Registry:   testRegistry(),
		Router:     f.router,
		Extractor:  f.extractor,
		FollowUp:   f.followUp,
		Sequential: f.collector,
		Predictor:  f.predictor,
		Oracle:     f.oracle,
		Store:      f.store,
	}, opts...)
	return f
}

func decision(dest model.Destination) model.RoutingDecision {
	return model.RoutingDecision{Destination: dest, Method: model.MethodKeyword}
}

func extraction(extracted map[string]string, missing ...string) *model.ExtractionResult {
	return &model.ExtractionResult{
		Extracted:  extracted,
		Confidence: map[string]float64{},
		Missing:    missing,
	}
}

func TestHandleMessage_FallbackShowsIntroOnce(t *testing.T) {
	f := newFixture(t)
	f.router.On("Route", mock.Anything, "hello").Return(decision(model.DestFallback))

	reply, err := f.orch.HandleMessage(context.Background(), "", "hello", nil)

	require.NoError(t, err)
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, collect.IntroMessage, reply.Text)

	// Later fallback turns get an answer, not the intro again.
	f.router.On("Route", mock.Anything, "hi again").Return(decision(model.DestFallback))
	f.oracle.On("Complete", mock.Anything, mock.Anything).
		Return(&oracle.Response{Text: "Happy to help with moves and policy."}, nil)

	reply2, err := f.orch.HandleMessage(context.Background(), reply.SessionID, "hi again", nil)
	require.NoError(t, err)
	assert.NotContains(t, reply2.Text, collect.IntroMessage)
	assert.Contains(t, reply2.Text, "Happy to help")
}

func TestHandleMessage_SingleDomainRouteAsksBeforeCollecting(t *testing.T) {
	// Routing to one domain must not open a collection until the user
	// confirms; declining leaves the session free for a fresh query.
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, "how much will I earn abroad").
		Return(decision(model.DestCompensation)).Once()

	reply, err := f.orch.HandleMessage(ctx, "sc1", "how much will I earn abroad", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "questionnaire")

	s, err := f.store.Get(ctx, "sc1")
	require.NoError(t, err)
	_, _, active := s.ActiveCollection()
	assert.False(t, active)
	assert.Equal(t, model.DomainCompensation, s.AwaitingStartConfirm)

	// "no" declines: help message, no collection, flag cleared.
	reply, err = f.orch.HandleMessage(ctx, "sc1", "no", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, collect.HelpMessage)

	s, err = f.store.Get(ctx, "sc1")
	require.NoError(t, err)
	_, _, active = s.ActiveCollection()
	assert.False(t, active)
	assert.Empty(t, s.AwaitingStartConfirm)
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessage_UnclearStartReplyReasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestPolicy)).Once()

	_, err := f.orch.HandleMessage(ctx, "sc2", "visa question", nil)
	require.NoError(t, err)

	reply, err := f.orch.HandleMessage(ctx, "sc2", "banana", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "didn't catch that")
	assert.Contains(t, reply.Text, "questionnaire")

	s, err := f.store.Get(ctx, "sc2")
	require.NoError(t, err)
	assert.Equal(t, model.DomainPolicy, s.AwaitingStartConfirm)
	f.router.AssertNumberOfCalls(t, "Route", 1)
}

func TestHandleMessage_ConversationalFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Turn 1: routed to compensation, confirmation requested first.
	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestCompensation)).Once()

	reply, err := f.orch.HandleMessage(ctx, "s1", "estimate my package", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "questionnaire")

	// Turn 2: the confirming message carries data and feeds extraction.
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything,
		"yes, I'm moving from London to Singapore", mock.Anything).
		Return(extraction(map[string]string{
			"Origin Location":      "London, UK",
			"Destination Location": "Singapore",
		}, "Current Compensation")).Once()
	f.followUp.On("Generate", mock.Anything, model.DomainCompensation, mock.Anything,
		mock.Anything, mock.Anything).Return("What is your current salary?").Once()

	reply, err = f.orch.HandleMessage(ctx, "s1", "yes, I'm moving from London to Singapore", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "What is your current salary?")

	// Turn 3: last field arrives, summary is shown.
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, "£85k", mock.Anything).
		Return(extraction(map[string]string{"Current Compensation": "£85k"})).Once()

	reply, err = f.orch.HandleMessage(ctx, "s1", "£85k", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "• Origin Location: London, UK")
	assert.Contains(t, reply.Text, "• Current Compensation: £85k")
	assert.Contains(t, reply.Text, collect.ConfirmPrompt)

	// Turn 4: confirmation hands off to the prediction service.
	f.predictor.On("PredictCompensation", mock.Anything, mock.MatchedBy(func(p predict.CompensationParams) bool {
		return p.OriginLocation == "London, UK" && p.CurrentSalary == 85000 && p.Currency == "GBP"
	})).Return(&predict.Result{Status: "success", Summary: "Estimated package: SGD 210,000"}, nil).Once()

	reply, err = f.orch.HandleMessage(ctx, "s1", "yes", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Estimated package: SGD 210,000")

	// The collection is cleared for the next request.
	s, err := f.store.Get(ctx, "s1")
	require.NoError(t, err)
	_, _, active := s.ActiveCollection()
	assert.False(t, active)
}

func TestHandleMessage_InProgressCollectionTakesPriority(t *testing.T) {
	// Mid-collection, even a "policy"-looking message feeds the extractor;
	// the router is never consulted.
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestCompensation)).Once()
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(extraction(nil, "Origin Location", "Destination Location", "Current Compensation"))
	f.followUp.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Where from?")

	_, err := f.orch.HandleMessage(ctx, "s2", "salary question", nil)
	require.NoError(t, err)
	_, err = f.orch.HandleMessage(ctx, "s2", "yes", nil)
	require.NoError(t, err)

	_, err = f.orch.HandleMessage(ctx, "s2", "what about visa policy", nil)
	require.NoError(t, err)

	f.router.AssertNumberOfCalls(t, "Route", 1)
}

func TestHandleMessage_MergeNeverDowngrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestCompensation)).Once()
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, "yes, from London", mock.Anything).
		Return(extraction(map[string]string{"Origin Location": "London, UK"},
			"Destination Location", "Current Compensation")).Once()
	f.followUp.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Where to?")

	_, err := f.orch.HandleMessage(ctx, "s3", "salary estimate", nil)
	require.NoError(t, err)
	_, err = f.orch.HandleMessage(ctx, "s3", "yes, from London", nil)
	require.NoError(t, err)

	// A later turn that extracts nothing leaves the captured value alone.
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, "hmm not sure", mock.Anything).
		Return(extraction(nil, "Destination Location", "Current Compensation")).Once()

	_, err = f.orch.HandleMessage(ctx, "s3", "hmm not sure", nil)
	require.NoError(t, err)

	s, err := f.store.Get(ctx, "s3")
	require.NoError(t, err)
	assert.Equal(t, "London, UK", s.Collection(model.DomainCompensation).Answers["Origin Location"])
}

func TestHandleMessage_ConfirmationNoReopensCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestPolicy)).Once()
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(extraction(map[string]string{
			"Origin Country":      "Germany",
			"Destination Country": "Brazil",
		})).Once()

	_, err := f.orch.HandleMessage(ctx, "s4", "policy for Germany to Brazil", nil)
	require.NoError(t, err)

	reply, err := f.orch.HandleMessage(ctx, "s4", "yes please", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, collect.ConfirmPrompt)

	reply, err = f.orch.HandleMessage(ctx, "s4", "no", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "what to change")

	// A correction merges over the old value and re-confirms.
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(extraction(map[string]string{"Destination Country": "Chile"})).Once()

	reply, err = f.orch.HandleMessage(ctx, "s4", "destination is Chile actually", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "• Destination Country: Chile")
	assert.Contains(t, reply.Text, "• Origin Country: Germany")
}

func TestHandleMessage_UnclearConfirmationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestPolicy)).Once()
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(extraction(map[string]string{
			"Origin Country":      "Germany",
			"Destination Country": "Brazil",
		})).Once()

	_, err := f.orch.HandleMessage(ctx, "s5", "policy request", nil)
	require.NoError(t, err)
	first, err := f.orch.HandleMessage(ctx, "s5", "yes", nil)
	require.NoError(t, err)

	for _, input := range []string{"hmm", "banana", "let me think"} {
		reply, err := f.orch.HandleMessage(ctx, "s5", input, nil)
		require.NoError(t, err)
		assert.Contains(t, reply.Text, collect.ConfirmPrompt)

		s, _ := f.store.Get(ctx, "s5")
		c := s.Collection(model.DomainPolicy)
		assert.Equal(t, model.PhaseAwaitingConfirmation, c.Phase)
		assert.Equal(t, "Germany", c.Answers["Origin Country"])
	}
	_ = first
}

func TestHandleMessage_BothChoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestBoth)).Once()

	reply, err := f.orch.HandleMessage(ctx, "s6", "cheapest way to send someone to Tokyo", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, collect.BothChoiceMessage)

	// An unclear pick re-asks without consulting the router again.
	reply, err = f.orch.HandleMessage(ctx, "s6", "err, dunno", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, collect.BothChoiceMessage)

	// Picking compensation starts that collection.
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(extraction(nil, "Origin Location", "Destination Location", "Current Compensation"))
	f.followUp.On("Generate", mock.Anything, model.DomainCompensation, mock.Anything, mock.Anything, mock.Anything).
		Return("Where from?")

	reply, err = f.orch.HandleMessage(ctx, "s6", "compensation first", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Where from?")
	f.router.AssertNumberOfCalls(t, "Route", 1)

	s, _ := f.store.Get(ctx, "s6")
	assert.False(t, s.AwaitingBothChoice)
}

func TestHandleMessage_SequentialMode(t *testing.T) {
	f := newFixture(t, WithMode(model.ModeSequential))
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestPolicy)).Once()
	f.collector.On("Start", model.DomainPolicy, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.CollectionState).Phase = model.PhaseAsking
		}).Return("Question 1 of 2: Which country from?").Once()

	reply, err := f.orch.HandleMessage(ctx, "s7", "policy", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "questionnaire")

	reply, err = f.orch.HandleMessage(ctx, "s7", "yes", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Question 1 of 2")

	f.collector.On("ProcessAnswer", mock.Anything, model.DomainPolicy, mock.Anything, "Germany").
		Return("Question 2 of 2: Which country to?", false).Once()

	reply, err = f.orch.HandleMessage(ctx, "s7", "Germany", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Question 2 of 2")

	// Confirmed answers hand off to policy analysis.
	f.collector.On("ProcessAnswer", mock.Anything, model.DomainPolicy, mock.Anything, "yes").
		Run(func(args mock.Arguments) {
			c := args.Get(2).(*model.CollectionState)
			c.Answers["Origin Country"] = "Germany"
			c.Answers["Destination Country"] = "Brazil"
			c.Phase = model.PhaseCompleted
		}).Return("", true).Once()
	f.predictor.On("AnalyzePolicy", mock.Anything, mock.MatchedBy(func(p predict.PolicyParams) bool {
		return p.OriginCountry == "Germany" && p.DestinationCountry == "Brazil"
	})).Return(&predict.Result{Status: "success", Summary: "Long-term lane applies."}, nil).Once()

	reply, err = f.orch.HandleMessage(ctx, "s7", "yes", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Long-term lane applies.")
}

func TestHandleMessage_PredictorFailureFallsBackToOracle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestPolicy)).Once()
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(extraction(map[string]string{
			"Origin Country":      "Germany",
			"Destination Country": "Brazil",
		})).Once()

	_, err := f.orch.HandleMessage(ctx, "s8", "policy request", nil)
	require.NoError(t, err)
	_, err = f.orch.HandleMessage(ctx, "s8", "yes", nil)
	require.NoError(t, err)

	f.predictor.On("AnalyzePolicy", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()
	f.oracle.On("Complete", mock.Anything, mock.Anything).
		Return(&oracle.Response{Text: "Typically a long-term assignment lane applies here."}, nil)

	reply, err := f.orch.HandleMessage(ctx, "s8", "yes", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "long-term assignment lane")
}

func TestHandleMessage_ApologyWhenEverythingFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestPolicy)).Once()
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(extraction(map[string]string{
			"Origin Country":      "Germany",
			"Destination Country": "Brazil",
		})).Once()

	_, err := f.orch.HandleMessage(ctx, "s9", "policy request", nil)
	require.NoError(t, err)
	_, err = f.orch.HandleMessage(ctx, "s9", "yes", nil)
	require.NoError(t, err)

	f.predictor.On("AnalyzePolicy", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()
	f.oracle.On("Complete", mock.Anything, mock.Anything).
		Return(nil, errors.New("also down"))

	reply, err := f.orch.HandleMessage(ctx, "s9", "yes", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, collect.ApologyMessage)
}

func TestHandleMessage_AttachmentsFeedExtraction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var gotUtterance string
	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestCompensation)).Once()
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(u string) bool {
			gotUtterance = u
			return true
		}), mock.Anything).
		Return(extraction(nil, "Origin Location", "Destination Location", "Current Compensation")).Once()
	f.followUp.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Where from?")

	_, err := f.orch.HandleMessage(ctx, "s10", "estimate my package", nil)
	require.NoError(t, err)
	_, err = f.orch.HandleMessage(ctx, "s10", "yes, details attached",
		[]model.Attachment{{Name: "offer.txt", Content: "Base salary: GBP 85,000"}})
	require.NoError(t, err)

	assert.Contains(t, gotUtterance, "details attached")
	assert.Contains(t, gotUtterance, "offer.txt")
	assert.Contains(t, gotUtterance, "Base salary: GBP 85,000")
}

func TestHandleMessage_PersistsAcrossOrchestrators(t *testing.T) {
	// State lives in the store, not the orchestrator.
	f := newFixture(t)
	ctx := context.Background()

	f.router.On("Route", mock.Anything, mock.Anything).Return(decision(model.DestCompensation)).Once()
	f.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(extraction(map[string]string{"Origin Location": "London, UK"},
			"Destination Location", "Current Compensation")).Once()
	f.followUp.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Where to?")

	_, err := f.orch.HandleMessage(ctx, "s11", "salary estimate", nil)
	require.NoError(t, err)
	_, err = f.orch.HandleMessage(ctx, "s11", "yes, from London", nil)
	require.NoError(t, err)

	second := New(Deps{
		Registry:   testRegistry(),
		Router:     f.router,
		Extractor:  f.extractor,
		FollowUp:   f.followUp,
		Sequential: f.collector,
		Predictor:  f.predictor,
		Oracle:     f.oracle,
		Store:      f.store,
	})
	f.extractor.On("Extract", mock.Anything, mock.Anything,
		mock.MatchedBy(func(captured map[string]string) bool {
			return captured["Origin Location"] == "London, UK"
		}), mock.Anything, mock.Anything).
		Return(extraction(nil, "Destination Location", "Current Compensation"))

	_, err = second.HandleMessage(ctx, "s11", "still thinking", nil)
	require.NoError(t, err)
}
