package monitor

import (
	"context"
	"sync"

	"arbmonitor/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockExchange struct {
	mock.Mock
	name string
}

func (m *MockExchange) Name() string { return m.name }

func (m *MockExchange) FetchTicker(ctx context.Context, pair domain.CurrencyPair) (domain.Ticker, error) {
	args := m.Called(ctx, pair)
	return args.Get(0).(domain.Ticker), args.Error(1)
}

func (m *MockExchange) FetchOrderBook(ctx context.Context, market domain.Market, depth int) (domain.OrderBook, error) {
	args := m.Called(ctx, market, depth)
	return args.Get(0).(domain.OrderBook), args.Error(1)
}

// recordingAction keeps every batch it receives, in call order.
type recordingAction struct {
	name  string
	order *[]string
	mu    sync.Mutex
	inter []domain.InterBatch
	tri   []domain.TriBatch
	err   error
	panic bool
}

func (a *recordingAction) Name() string { return a.name }

func (a *recordingAction) RunInter(_ context.Context, batch domain.InterBatch) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.order != nil {
		*a.order = append(*a.order, a.name)
	}
	if a.panic {
		panic("sink exploded")
	}
	a.inter = append(a.inter, batch)
	return a.err
}

func (a *recordingAction) RunTri(_ context.Context, batch domain.TriBatch) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.order != nil {
		*a.order = append(*a.order, a.name)
	}
	if a.panic {
		panic("sink exploded")
	}
	a.tri = append(a.tri, batch)
	return a.err
}

func (a *recordingAction) interCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inter)
}
