package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Spread is the result of buying on Buy at its ask and selling on Sell at its bid.
type Spread struct {
	Buy        PriceSnapshot `json:"buy"`
	Sell       PriceSnapshot `json:"sell"`
	Pair       CurrencyPair  `json:"currency_pair"`
	Value      float64       `json:"spread"`
	RecordedAt time.Time     `json:"recorded_at"`
}

func (s Spread) Profitable() bool { return s.Value > 0 }

func (s Spread) BuyPrice() float64 {
	if s.Buy.Ask == nil {
		return 0
	}
	return *s.Buy.Ask
}

func (s Spread) SellPrice() float64 {
	if s.Sell.Bid == nil {
		return 0
	}
	return *s.Sell.Bid
}

// Key identifies the (buy, sell, pair) combination independently of the cycle.
func (s Spread) Key() string {
	return s.Buy.Exchange + ">" + s.Sell.Exchange + ":" + string(s.Pair)
}

// TriangularRoute is three trade pairs on one exchange.
// For legs X/Y, Z/X and Z/Y the direct rate bid(X/Y) is compared with
// bid(Z/Y) / ask(Z/X), both expressed in Y per X.
type TriangularRoute struct {
	Exchange string    `json:"exchange"`
	Legs     [3]Market `json:"legs"`
}

func (r TriangularRoute) Validate() error {
	l1, l2, l3 := r.Legs[0], r.Legs[1], r.Legs[2]
	if r.Exchange == "" {
		return fmt.Errorf("%w: exchange is empty", ErrInvalidRoute)
	}
	if l2.Quote != l1.Base || l3.Base != l2.Base || l3.Quote != l1.Quote {
		return fmt.Errorf("%w: %s", ErrInvalidRoute, r)
	}
	x, y, z := l1.Base, l1.Quote, l2.Base
	if x == "" || y == "" || z == "" || x == y || y == z || x == z {
		return fmt.Errorf("%w: %s", ErrInvalidRoute, r)
	}
	return nil
}

func (r TriangularRoute) Symbols() [3]string {
	return [3]string{r.Legs[0].Symbol(), r.Legs[1].Symbol(), r.Legs[2].Symbol()}
}

func (r TriangularRoute) String() string {
	parts := make([]string, 0, len(r.Legs))
	for _, l := range r.Legs {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, "|")
}

// LegQuote is the top of book of one triangular leg as it was fetched.
// Ask or Bid is nil when that side of the book was empty or unavailable.
type LegQuote struct {
	Market    Market    `json:"market"`
	Ask       *float64  `json:"ask"`
	Bid       *float64  `json:"bid"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Snapshot converts the quote into a price snapshot row for the given exchange.
func (q LegQuote) Snapshot(exchange string) PriceSnapshot {
	return PriceSnapshot{
		Exchange:    exchange,
		Pair:        CurrencyPair(q.Market.String()),
		Ask:         q.Ask,
		Bid:         q.Bid,
		RefreshedAt: q.FetchedAt,
	}
}

// TriSpread holds the prices used for one triangular evaluation.
// Prices are bid(leg1), 1/ask(leg2) and bid(leg3).
type TriSpread struct {
	Route        TriangularRoute `json:"route"`
	Quotes       [3]LegQuote     `json:"quotes"`
	Prices       [3]float64      `json:"prices"`
	DirectRate   float64         `json:"direct_rate"`
	ViaRate      float64         `json:"via_rate"`
	Leg2Fallback bool            `json:"leg2_fallback"`
	Value        float64         `json:"spread"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

func (s TriSpread) Profitable() bool { return s.Value > 0 }

type InterBatch struct {
	CycleID   uuid.UUID       `json:"cycle_id"`
	Timestamp time.Time       `json:"timestamp"`
	Spreads   []Spread        `json:"spreads"`
	Sources   []PriceSnapshot `json:"sources"`
}

type TriBatch struct {
	CycleID   uuid.UUID         `json:"cycle_id"`
	Timestamp time.Time         `json:"timestamp"`
	Spreads   []TriSpread       `json:"spreads"`
	Routes    []TriangularRoute `json:"routes"`
}
