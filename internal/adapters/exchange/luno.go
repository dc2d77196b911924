package exchange

import (
	"context"
	"fmt"
	"strings"

	"arbmonitor/internal/domain"

	"github.com/luno/luno-go"
	"github.com/luno/luno-go/decimal"
)

type LunoClient struct {
	client *luno.Client
}

func NewLunoClient(opts Options) *LunoClient {
	c := luno.NewClient()
	if opts.BaseURL != "" {
		c.SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/"))
	}
	if opts.HTTPClient != nil && opts.HTTPClient.Timeout > 0 {
		c.SetTimeout(opts.HTTPClient.Timeout)
	}
	return &LunoClient{client: c}
}

func (c *LunoClient) Name() string { return Luno }

// lunoPair maps to Luno naming, which uses XBT for bitcoin.
func lunoPair(m domain.Market) string {
	fix := func(s string) string {
		if s == "BTC" {
			return "XBT"
		}
		return s
	}
	return fix(m.Base) + fix(m.Quote)
}

func (c *LunoClient) FetchTicker(ctx context.Context, pair domain.CurrencyPair) (domain.Ticker, error) {
	res, err := c.client.GetTicker(ctx, &luno.GetTickerRequest{Pair: lunoPair(pair.Market())})
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("failed to get luno ticker for %s: %w", pair, err)
	}
	ask, bid := res.Ask.Float64(), res.Bid.Float64()
	if ask <= 0 || bid <= 0 {
		return domain.Ticker{}, fmt.Errorf("malformed luno ticker for %s: %w", pair, domain.ErrMissingPrice)
	}
	return domain.Ticker{Ask: ask, Bid: bid}, nil
}

func (c *LunoClient) FetchOrderBook(ctx context.Context, market domain.Market, depth int) (domain.OrderBook, error) {
	res, err := c.client.GetOrderBook(ctx, &luno.GetOrderBookRequest{Pair: lunoPair(market)})
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("failed to get luno order book for %s: %w", market, err)
	}
	book := domain.OrderBook{Market: market}
	for _, e := range truncate(res.Asks, depth) {
		book.Asks = append(book.Asks, lunoLevel(e.Price, e.Volume))
	}
	for _, e := range truncate(res.Bids, depth) {
		book.Bids = append(book.Bids, lunoLevel(e.Price, e.Volume))
	}
	return checkBook(book)
}

func lunoLevel(price, volume decimal.Decimal) domain.PriceLevel {
	return domain.PriceLevel{Price: price.Float64(), Volume: volume.Float64()}
}
