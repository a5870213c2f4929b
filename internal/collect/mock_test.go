package collect

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/mobility-advisor/pkg/oracle"
)

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
