package exchange

import (
	"context"
	"encoding/json"
	"net/url"

	"arbmonitor/internal/domain"

	"github.com/shopspring/decimal"
)

// Coinbase Exchange is the former GDAX public API.
const coinbaseBaseURL = "https://api.exchange.coinbase.com"

type CoinbaseClient struct {
	restClient
}

type coinbaseTicker struct {
	Ask decimal.Decimal `json:"ask"`
	Bid decimal.Decimal `json:"bid"`
}

type coinbaseOrderBook struct {
	Bids [][]json.RawMessage `json:"bids"`
	Asks [][]json.RawMessage `json:"asks"`
}

func NewCoinbaseClient(opts Options) *CoinbaseClient {
	return &CoinbaseClient{restClient: newRestClient(Coinbase, coinbaseBaseURL, opts)}
}

func (c *CoinbaseClient) Name() string { return Coinbase }

func productID(m domain.Market) string { return m.Base + "-" + m.Quote }

func (c *CoinbaseClient) FetchTicker(ctx context.Context, pair domain.CurrencyPair) (domain.Ticker, error) {
	var body coinbaseTicker
	if err := c.getJSON(ctx, "/products/"+productID(pair.Market())+"/ticker", nil, &body); err != nil {
		return domain.Ticker{}, err
	}
	return tickerFromDecimals(body.Ask, body.Bid)
}

func (c *CoinbaseClient) FetchOrderBook(ctx context.Context, market domain.Market, depth int) (domain.OrderBook, error) {
	var body coinbaseOrderBook
	if err := c.getJSON(ctx, "/products/"+productID(market)+"/book", url.Values{"level": {"2"}}, &body); err != nil {
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
