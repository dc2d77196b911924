package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"arbmonitor/internal/domain"
	"arbmonitor/internal/spread"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func tickerSource(name string, pair domain.CurrencyPair, ticker domain.Ticker, err error) *PriceSource {
	ex := &MockExchange{name: name}
	ex.On("FetchTicker", mock.Anything, pair).Return(ticker, err)
	return NewPriceSource(ex, pair)
}

func TestNew_RejectsInvalidConfiguration(t *testing.T) {
	_, err := New(domain.MonitorType("both"), Configuration{})
	require.ErrorIs(t, err, domain.ErrUnknownMonitorType)

	_, err = New(domain.MonitorInter, Configuration{PollInterval: -time.Second})
	require.Error(t, err)

	dup := []*PriceSource{
		NewPriceSource(&MockExchange{name: "bitstamp"}, domain.BTCUSD),
		NewPriceSource(&MockExchange{name: "bitstamp"}, domain.BTCUSD),
	}
	_, err = New(domain.MonitorInter, Configuration{PriceSources: dup})
	require.ErrorContains(t, err, "duplicate price source bitstamp:BTC/USD")

	badRoute := Route{
		TriangularRoute: domain.TriangularRoute{
			Exchange: "binance",
			Legs:     [3]domain.Market{{Base: "BNB", Quote: "BTC"}, {Base: "ADA", Quote: "ETH"}, {Base: "ADA", Quote: "BTC"}},
		},
		Fetcher: &MockExchange{name: "binance"},
	}
	_, err = New(domain.MonitorTri, Configuration{TriangularRoutes: []Route{badRoute}})
	require.ErrorIs(t, err, domain.ErrInvalidRoute)
}

func TestNew_AppliesDefaults(t *testing.T) {
	m, err := New(domain.MonitorInter, Configuration{})
	require.NoError(t, err)
	require.Equal(t, defaultPollInterval, m.PollInterval())
	require.Equal(t, defaultWorkers, m.cfg.Workers)
	require.Equal(t, defaultRequestTimeout, m.cfg.RequestTimeout)
}

func TestRunInterCycle_EmptyConfigurationStillDispatches(t *testing.T) {
	var order []string
	first := &recordingAction{name: "database", order: &order}
	second := &recordingAction{name: "csv", order: &order}
	m, err := New(domain.MonitorInter, Configuration{UpdateActions: []UpdateAction{first, second}})
	require.NoError(t, err)

	id := uuid.New()
	batch, err := m.RunInterCycle(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, batch.CycleID)
	require.Empty(t, batch.Spreads)
	require.False(t, batch.Timestamp.IsZero())

	require.Equal(t, []string{"database", "csv"}, order)
	require.Len(t, first.inter, 1)
	require.Len(t, second.inter, 1)
	require.Empty(t, first.inter[0].Spreads)
}

func TestRunInterCycle_ComputesAndTimestampsSpreads(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	action := &recordingAction{name: "capture"}
	m, err := New(domain.MonitorInter, Configuration{
		PriceSources: []*PriceSource{
			tickerSource("bitstamp", domain.BTCUSD, domain.Ticker{Ask: 100, Bid: 99}, nil),
			tickerSource("coinbase", domain.BTCUSD, domain.Ticker{Ask: 105, Bid: 104}, nil),
			tickerSource("bitfinex", domain.ETHUSD, domain.Ticker{Ask: 10, Bid: 9}, nil),
		},
		UpdateActions: []UpdateAction{action},
		MinSpread:     3,
	})
	require.NoError(t, err)
	m.now = func() time.Time { return fixed }

	batch, err := m.RunInterCycle(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, batch.Sources, 3)
	require.Len(t, batch.Spreads, 1)

	s := batch.Spreads[0]
	require.Equal(t, "bitstamp", s.Buy.Exchange)
	require.Equal(t, "coinbase", s.Sell.Exchange)
	require.Equal(t, 4.0, s.Value)
	require.True(t, s.Profitable())
	require.Equal(t, fixed, s.RecordedAt)
	require.Equal(t, fixed, batch.Timestamp)
	require.Equal(t, batch, action.inter[0])
}

func TestRunInterCycle_RefreshFailureKeepsOthersAndStalePrices(t *testing.T) {
	flaky := &MockExchange{name: "coinbase"}
	flaky.On("FetchTicker", mock.Anything, domain.BTCUSD).Return(domain.Ticker{Ask: 105, Bid: 104}, nil).Once()
	flaky.On("FetchTicker", mock.Anything, domain.BTCUSD).Return(domain.Ticker{}, errors.New("503")).Once()

	m, err := New(domain.MonitorInter, Configuration{
		PriceSources: []*PriceSource{
			tickerSource("bitstamp", domain.BTCUSD, domain.Ticker{Ask: 100, Bid: 99}, nil),
			NewPriceSource(flaky, domain.BTCUSD),
		},
	})
	require.NoError(t, err)

	_, err = m.RunInterCycle(context.Background(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, m.RunCycle(context.Background(), uuid.New()))
	st := m.Status()
	require.Equal(t, 1, st.RefreshFailures)
	require.Equal(t, 1, st.LastSpreads)
	require.Equal(t, int64(1), st.Cycles)
}

func TestRunInterCycle_SourceNeverRefreshedIsSkipped(t *testing.T) {
	m, err := New(domain.MonitorInter, Configuration{
		PriceSources: []*PriceSource{
			tickerSource("bitstamp", domain.BTCUSD, domain.Ticker{Ask: 100, Bid: 99}, nil),
			tickerSource("coinbase", domain.BTCUSD, domain.Ticker{}, errors.New("dns")),
		},
	})
	require.NoError(t, err)

	batch, err := m.RunInterCycle(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, batch.Spreads)
	require.Len(t, batch.Sources, 2)
}

func TestRunCycle_ActionFailuresDoNotStopDispatch(t *testing.T) {
	var order []string
	failing := &recordingAction{name: "db", order: &order, err: errors.New("disk full")}
	panicking := &recordingAction{name: "broken", order: &order, panic: true}
	last := &recordingAction{name: "csv", order: &order}

	m, err := New(domain.MonitorInter, Configuration{UpdateActions: []UpdateAction{failing, panicking, last}})
	require.NoError(t, err)

	require.NoError(t, m.RunCycle(context.Background(), uuid.New()))
	require.Equal(t, []string{"db", "broken", "csv"}, order)
	require.Len(t, last.inter, 1)
	require.Equal(t, 2, m.Status().ActionFailures)
}

type panickingFetcher struct{}

func (panickingFetcher) FetchOrderBook(context.Context, domain.Market, int) (domain.OrderBook, error) {
	panic("unexpected nil book")
}

func TestRunTriCycle_PanickingRouteIsSkipped(t *testing.T) {
	route := Route{
		TriangularRoute: domain.TriangularRoute{
			Exchange: "binance",
			Legs:     [3]domain.Market{{Base: "BNB", Quote: "BTC"}, {Base: "ADA", Quote: "BNB"}, {Base: "ADA", Quote: "BTC"}},
		},
		Fetcher: panickingFetcher{},
	}
	m, err := New(domain.MonitorTri, Configuration{TriangularRoutes: []Route{route}})
	require.NoError(t, err)

	require.NoError(t, m.RunCycle(context.Background(), uuid.New()))
	st := m.Status()
	require.Equal(t, 1, st.LastSkipped)
	require.Zero(t, st.LastSpreads)
}

func TestRunCycle_RecoversPanicAndRecordsStatus(t *testing.T) {
	m, err := New(domain.MonitorInter, Configuration{})
	require.NoError(t, err)
	calls := 0
	m.now = func() time.Time {
		calls++
		if calls == 2 {
			panic("clock went away")
		}
		return time.Now()
	}

	id := uuid.New()
	err = m.RunCycle(context.Background(), id)
	require.Error(t, err)
	require.Contains(t, err.Error(), "panicked")

	st := m.Status()
	require.Equal(t, int64(1), st.Cycles)
	require.Equal(t, int64(1), st.FailedCycles)
	require.Equal(t, id, st.LastCycleID)
	require.NotEmpty(t, st.LastError)

	// the next cycle runs normally
	require.NoError(t, m.RunCycle(context.Background(), uuid.New()))
	require.Equal(t, int64(2), m.Status().Cycles)
	require.Empty(t, m.Status().LastError)
}

func TestRunTriCycle_SkipsFailedRoutesKeepsOrder(t *testing.T) {
	legs := func(alt string) [3]domain.Market {
		return [3]domain.Market{{Base: "BNB", Quote: "BTC"}, {Base: alt, Quote: "BNB"}, {Base: alt, Quote: "BTC"}}
	}
	book := func(ask, bid float64) domain.OrderBook {
		return domain.OrderBook{Asks: []domain.PriceLevel{{Price: ask}}, Bids: []domain.PriceLevel{{Price: bid}}}
	}

	ex := &MockExchange{name: "binance"}
	ex.On("FetchOrderBook", mock.Anything, domain.Market{Base: "BNB", Quote: "BTC"}, spread.OrderBookDepth).Return(book(0.0101, 0.01), nil)
	ex.On("FetchOrderBook", mock.Anything, domain.Market{Base: "ADA", Quote: "BNB"}, spread.OrderBookDepth).Return(book(0.5, 0.49), nil)
	ex.On("FetchOrderBook", mock.Anything, domain.Market{Base: "ADA", Quote: "BTC"}, spread.OrderBookDepth).Return(book(0.0051, 0.005), nil)
	ex.On("FetchOrderBook", mock.Anything, domain.Market{Base: "ANT", Quote: "BNB"}, spread.OrderBookDepth).Return(book(0.25, 0.24), nil)
	ex.On("FetchOrderBook", mock.Anything, domain.Market{Base: "ANT", Quote: "BTC"}, spread.OrderBookDepth).Return(domain.OrderBook{}, errors.New("halted"))
	ex.On("FetchOrderBook", mock.Anything, domain.Market{Base: "AVA", Quote: "BNB"}, spread.OrderBookDepth).Return(domain.OrderBook{}, errors.New("timeout"))
	ex.On("FetchOrderBook", mock.Anything, domain.Market{Base: "AVA", Quote: "BTC"}, spread.OrderBookDepth).Return(book(0.0031, 0.003), nil)

	routes := []Route{
		{TriangularRoute: domain.TriangularRoute{Exchange: "binance", Legs: legs("ADA")}, Fetcher: ex},
		{TriangularRoute: domain.TriangularRoute{Exchange: "binance", Legs: legs("ANT")}, Fetcher: ex},
		{TriangularRoute: domain.TriangularRoute{Exchange: "binance", Legs: legs("AVA")}, Fetcher: ex},
	}
	action := &recordingAction{name: "capture"}
	m, err := New(domain.MonitorTri, Configuration{TriangularRoutes: routes, UpdateActions: []UpdateAction{action}, Workers: 3})
	require.NoError(t, err)

	batch, err := m.RunTriCycle(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, batch.Routes, 3)
	require.Len(t, batch.Spreads, 2)
	require.Equal(t, "ADA", batch.Spreads[0].Route.Legs[1].Base)
	require.InDelta(t, 0.0, batch.Spreads[0].Value, 1e-15)
	require.Equal(t, "AVA", batch.Spreads[1].Route.Legs[1].Base)
	require.True(t, batch.Spreads[1].Leg2Fallback)
	require.Less(t, batch.Spreads[1].Value, 0.0)
	for _, s := range batch.Spreads {
		require.Equal(t, batch.Timestamp, s.RecordedAt)
	}
	require.Len(t, action.tri, 1)
}

func TestRunInterCycle_CanceledContextSkipsDispatch(t *testing.T) {
	action := &recordingAction{name: "capture"}
	m, err := New(domain.MonitorInter, Configuration{
		PriceSources:  []*PriceSource{tickerSource("bitstamp", domain.BTCUSD, domain.Ticker{Ask: 1, Bid: 1}, nil)},
		UpdateActions: []UpdateAction{action},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.RunInterCycle(ctx, uuid.New())
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, action.interCalls())
}

func TestRefreshSources_BoundedWorkers(t *testing.T) {
	var inFlight, peak atomic.Int32
	sources := make([]*PriceSource, 0, 12)
	for i := 0; i < 12; i++ {
		ex := &MockExchange{name: "ex" + string(rune('a'+i))}
		ex.On("FetchTicker", mock.Anything, domain.BTCUSD).Run(func(mock.Arguments) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		}).Return(domain.Ticker{Ask: 1, Bid: 1}, nil)
		sources = append(sources, NewPriceSource(ex, domain.BTCUSD))
	}

	errs := refreshSources(context.Background(), sources, 3, time.Second)
	require.Empty(t, errs)
	require.LessOrEqual(t, peak.Load(), int32(3))
	for _, s := range sources {
		_, ok := s.BestAsk()
		require.True(t, ok)
	}
}
