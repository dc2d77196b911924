package exchange

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"arbmonitor/internal/domain"

	"github.com/shopspring/decimal"
)

const binanceBaseURL = "https://api.binance.com"

// Binance accepts only these depth limits.
var binanceDepthLimits = []int{5, 10, 20, 50, 100, 500, 1000, 5000}

type BinanceClient struct {
	restClient
}

type binanceBookTicker struct {
	Symbol   string          `json:"symbol"`
	BidPrice decimal.Decimal `json:"bidPrice"`
	AskPrice decimal.Decimal `json:"askPrice"`
}

type binanceDepth struct {
	LastUpdateID int64               `json:"lastUpdateId"`
	Bids         [][]json.RawMessage `json:"bids"`
	Asks         [][]json.RawMessage `json:"asks"`
}

func NewBinanceClient(opts Options) *BinanceClient {
	return &BinanceClient{restClient: newRestClient(Binance, binanceBaseURL, opts)}
}

func (c *BinanceClient) Name() string { return Binance }

func (c *BinanceClient) FetchTicker(ctx context.Context, pair domain.CurrencyPair) (domain.Ticker, error) {
	var body binanceBookTicker
	query := url.Values{"symbol": {pair.Market().Symbol()}}
	if err := c.getJSON(ctx, "/api/v3/ticker/bookTicker", query, &body); err != nil {
		return domain.Ticker{}, err
	}
	return tickerFromDecimals(body.AskPrice, body.BidPrice)
}

func (c *BinanceClient) FetchOrderBook(ctx context.Context, market domain.Market, depth int) (domain.OrderBook, error) {
	query := url.Values{
		"symbol": {market.Symbol()},
		"limit":  {strconv.Itoa(binanceLimit(depth))},
	}
	var body binanceDepth
	if err := c.getJSON(ctx, "/api/v3/depth", query, &body); err != nil {
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

func binanceLimit(depth int) int {
	for _, l := range binanceDepthLimits {
		if depth <= l {
			return l
		}
	}
	return binanceDepthLimits[len(binanceDepthLimits)-1]
}
