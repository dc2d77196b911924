package domain

import "time"

type Ticker struct {
	Ask float64
	Bid float64
}

type PriceLevel struct {
	Price  float64
	Volume float64
}

type OrderBook struct {
	Market Market
	Asks   []PriceLevel
	Bids   []PriceLevel
}

// BestAsk returns the lowest ask; levels are not assumed to be sorted.
func (b OrderBook) BestAsk() (float64, bool) {
	best, ok := 0.0, false
	for _, l := range b.Asks {
		if l.Price <= 0 {
			continue
		}
		if !ok || l.Price < best {
			best, ok = l.Price, true
		}
	}
	return best, ok
}

// BestBid returns the highest bid.
func (b OrderBook) BestBid() (float64, bool) {
	best, ok := 0.0, false
	for _, l := range b.Bids {
		if l.Price <= 0 {
			continue
		}
		if !ok || l.Price > best {
			best, ok = l.Price, true
		}
	}
	return best, ok
}

// PriceSnapshot is a read-only copy of a price source taken after the refresh step.
type PriceSnapshot struct {
	Exchange    string       `json:"exchange"`
	Pair        CurrencyPair `json:"currency_pair"`
	Ask         *float64     `json:"last_ask"`
	Bid         *float64     `json:"last_bid"`
	RefreshedAt time.Time    `json:"refreshed_at"`
}

func (s PriceSnapshot) HasPrices() bool { return s.Ask != nil && s.Bid != nil }
