package session

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/mobility-advisor/internal/model"
	"github.com/sells-group/mobility-advisor/internal/schema"
	"github.com/sells-group/mobility-advisor/pkg/oracle"
	"github.com/sells-group/mobility-advisor/pkg/predict"
)

// --- Router Mock ---

type mockRouter struct {
	mock.Mock
}

func (m *mockRouter) Route(ctx context.Context, input string) model.RoutingDecision {
	args := m.Called(ctx, input)
	return args.Get(0).(model.RoutingDecision)
}

// --- Extractor Mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, fields []schema.Field, captured map[string]string, utterance string, history []model.Turn) *model.ExtractionResult {
	args := m.Called(ctx, fields, captured, utterance, history)
	return args.Get(0).(*model.ExtractionResult)
}

// --- FollowUp Mock ---

type mockFollowUp struct {
	mock.Mock
}

func (m *mockFollowUp) Generate(ctx context.Context, domain model.Domain, fields []schema.Field, answers map[string]string, clarifications []model.Clarification) string {
	args := m.Called(ctx, domain, fields, answers, clarifications)
	return args.String(0)
}

// --- Collector Mock ---

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) Start(domain model.Domain, c *model.CollectionState) string {
	args := m.Called(domain, c)
	return args.String(0)
}

func (m *mockCollector) ProcessAnswer(ctx context.Context, domain model.Domain, c *model.CollectionState, input string) (string, bool) {
	args := m.Called(ctx, domain, c, input)
	return args.String(0), args.Bool(1)
}

// --- Predict Mock ---

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) PredictCompensation(ctx context.Context, params predict.CompensationParams) (*predict.Result, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*predict.Result), args.Error(1)
}

func (m *mockPredictor) AnalyzePolicy(ctx context.Context, params predict.PolicyParams) (*predict.Result, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*predict.Result), args.Error(1)
}

func (m *mockPredictor) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Oracle Mock ---

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Complete(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oracle.Response), args.Error(1)
}
