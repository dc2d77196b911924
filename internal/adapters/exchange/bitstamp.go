package exchange

import (
	"context"
	"encoding/json"
	"net/url"

	"arbmonitor/internal/domain"

	"github.com/shopspring/decimal"
)

const bitstampBaseURL = "https://www.bitstamp.net"

type BitstampClient struct {
	restClient
}

type bitstampTicker struct {
	Ask decimal.Decimal `json:"ask"`
	Bid decimal.Decimal `json:"bid"`
}

type bitstampOrderBook struct {
	Bids [][]json.RawMessage `json:"bids"`
	Asks [][]json.RawMessage `json:"asks"`
}

func NewBitstampClient(opts Options) *BitstampClient {
	return &BitstampClient{restClient: newRestClient(Bitstamp, bitstampBaseURL, opts)}
}

func (c *BitstampClient) Name() string { return Bitstamp }

func (c *BitstampClient) FetchTicker(ctx context.Context, pair domain.CurrencyPair) (domain.Ticker, error) {
	var body bitstampTicker
	if err := c.getJSON(ctx, "/api/v2/ticker/"+lowerSymbol(pair.Market())+"/", nil, &body); err != nil {
		return domain.Ticker{}, err
	}
	return tickerFromDecimals(body.Ask, body.Bid)
}

func (c *BitstampClient) FetchOrderBook(ctx context.Context, market domain.Market, depth int) (domain.OrderBook, error) {
	var body bitstampOrderBook
	if err := c.getJSON(ctx, "/api/v2/order_book/"+lowerSymbol(market)+"/", url.Values{"group": {"1"}}, &body); err != nil {
		return domain.OrderBook{}, err
	}
	asks, err := levelsFromArrays(truncate(body.Asks, depth))
	if err != nil {
		return domain.OrderBook{}, err
	}
	bids, err := levelsFromArrays(truncate(body.Bids, depth))
	if err != nil {
		return domain.OrderBook{}, err
	}
	return checkBook(domain.OrderBook{Market: market, Asks: asks, Bids: bids})
}

func truncate[T any](rows []T, depth int) []T {
	if depth > 0 && len(rows) > depth {
		return rows[:depth]
	}
	return rows
}
