package monitor

import (
	"context"
	"sync"
	"time"

	"arbmonitor/internal/adapters"
	"arbmonitor/internal/domain"
)

// PriceSource tracks the best ask/bid of one exchange for one currency pair.
// Prices stay nil until the first successful refresh and keep their last
// value when a later refresh fails.
type PriceSource struct {
	exchange adapters.Exchange
	pair     domain.CurrencyPair

	mu          sync.RWMutex
	ask         *float64
	bid         *float64
	refreshedAt time.Time
	now         func() time.Time
}

func NewPriceSource(exchange adapters.Exchange, pair domain.CurrencyPair) *PriceSource {
	return &PriceSource{exchange: exchange, pair: pair, now: time.Now}
}

func (s *PriceSource) Exchange() string          { return s.exchange.Name() }
func (s *PriceSource) Pair() domain.CurrencyPair { return s.pair }

// Refresh pulls the current ticker. It does not retry.
func (s *PriceSource) Refresh(ctx context.Context) error {
	ticker, err := s.exchange.FetchTicker(ctx, s.pair)
	if err != nil {
		return &domain.RefreshError{Exchange: s.Exchange(), Pair: s.pair.String(), Err: err}
	}
	if ticker.Ask <= 0 || ticker.Bid <= 0 {
		return &domain.RefreshError{Exchange: s.Exchange(), Pair: s.pair.String(), Err: domain.ErrMissingPrice}
	}

	ask, bid := ticker.Ask, ticker.Bid
	s.mu.Lock()
	s.ask, s.bid = &ask, &bid
	s.refreshedAt = s.now().UTC()
	s.mu.Unlock()
	return nil
}

func (s *PriceSource) BestAsk() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ask == nil {
		return 0, false
	}
	return *s.ask, true
}

func (s *PriceSource) BestBid() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bid == nil {
		return 0, false
	}
	return *s.bid, true
}

// Snapshot copies the current state so sinks never share pointers with the source.
func (s *PriceSource) Snapshot() domain.PriceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := domain.PriceSnapshot{Exchange: s.Exchange(), Pair: s.pair, RefreshedAt: s.refreshedAt}
	if s.ask != nil {
		ask := *s.ask
		snap.Ask = &ask
	}
	if s.bid != nil {
		bid := *s.bid
		snap.Bid = &bid
	}
	return snap
}
