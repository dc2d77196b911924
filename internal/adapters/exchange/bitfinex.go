package exchange

import (
	"context"
	"net/url"
	"strconv"

	"arbmonitor/internal/domain"

	"github.com/shopspring/decimal"
)

const bitfinexBaseURL = "https://api.bitfinex.com"

type BitfinexClient struct {
	restClient
}

type bitfinexTicker struct {
	Ask decimal.Decimal `json:"ask"`
	Bid decimal.Decimal `json:"bid"`
}

type bitfinexLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

type bitfinexOrderBook struct {
	Bids []bitfinexLevel `json:"bids"`
	Asks []bitfinexLevel `json:"asks"`
}

func NewBitfinexClient(opts Options) *BitfinexClient {
	return &BitfinexClient{restClient: newRestClient(Bitfinex, bitfinexBaseURL, opts)}
}

func (c *BitfinexClient) Name() string { return Bitfinex }

func (c *BitfinexClient) FetchTicker(ctx context.Context, pair domain.CurrencyPair) (domain.Ticker, error) {
	var body bitfinexTicker
	if err := c.getJSON(ctx, "/v1/pubticker/"+lowerSymbol(pair.Market()), nil, &body); err != nil {
		return domain.Ticker{}, err
	}
	return tickerFromDecimals(body.Ask, body.Bid)
}

func (c *BitfinexClient) FetchOrderBook(ctx context.Context, market domain.Market, depth int) (domain.OrderBook, error) {
	query := url.Values{}
	if depth > 0 {
		query.Set("limit_bids", strconv.Itoa(depth))
		query.Set("limit_asks", strconv.Itoa(depth))
	}
	var body bitfinexOrderBook
	if err := c.getJSON(ctx, "/v1/book/"+lowerSymbol(market), query, &body); err != nil {
		return domain.OrderBook{}, err
	}
	book := domain.OrderBook{Market: market}
	for _, l := range truncate(body.Asks, depth) {
		book.Asks = append(book.Asks, domain.PriceLevel{Price: l.Price.InexactFloat64(), Volume: l.Amount.InexactFloat64()})
	}
	for _, l := range truncate(body.Bids, depth) {
		book.Bids = append(book.Bids, domain.PriceLevel{Price: l.Price.InexactFloat64(), Volume: l.Amount.InexactFloat64()})
	}
	return checkBook(book)
}
