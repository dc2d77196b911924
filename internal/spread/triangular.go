package spread

import (
	"context"
	"fmt"
	"time"

	"arbmonitor/internal/domain"

	"github.com/sirupsen/logrus"
)

// SentinelInversePrice stands in for 1/ask(leg2) when leg 2 has no usable ask.
// It only keeps the arithmetic defined and is not a market price: the
// resulting spread comes out very negative instead of failing the route.
const SentinelInversePrice = 1e-9

// OrderBookDepth is how many levels are requested per leg.
const OrderBookDepth = 5

type OrderBookFetcher interface {
	FetchOrderBook(ctx context.Context, market domain.Market, depth int) (domain.OrderBook, error)
}

// ComputeTriSpread pulls live depth for each leg and returns bid(leg3)/ask(leg2) - bid(leg1).
// Every leg book is fetched once; its best ask and bid are kept in Quotes.
func ComputeTriSpread(ctx context.Context, fetcher OrderBookFetcher, route domain.TriangularRoute) (domain.TriSpread, error) {
	var quotes [3]domain.LegQuote
	var fetchErr error

	quotes[0], fetchErr = fetchQuote(ctx, fetcher, route.Legs[0])
	price1, err := legBid(quotes[0], fetchErr)
	if err != nil {
		return domain.TriSpread{}, err
	}

	quotes[1], fetchErr = fetchQuote(ctx, fetcher, route.Legs[1])
	price2, fallback := SentinelInversePrice, true
	if ask, askErr := legAsk(quotes[1], fetchErr); askErr == nil {
		price2, fallback = 1/ask, false
	} else {
		logrus.WithError(askErr).WithField("route", route.String()).Debug("Leg 2 ask unavailable, using sentinel inverse price")
	}

	quotes[2], fetchErr = fetchQuote(ctx, fetcher, route.Legs[2])
	price3, err := legBid(quotes[2], fetchErr)
	if err != nil {
		return domain.TriSpread{}, err
	}

	direct := price1
	via := price3 * price2
	if direct < via {
		logrus.WithFields(logrus.Fields{
			"exchange":    route.Exchange,
			"route":       route.String(),
			"direct_rate": direct,
			"via_rate":    via,
		}).Info("Triangular opportunity found")
	}

	return domain.TriSpread{
		Route:        route,
		Quotes:       quotes,
		Prices:       [3]float64{price1, price2, price3},
		DirectRate:   direct,
		ViaRate:      via,
		Leg2Fallback: fallback,
		Value:        via - direct,
	}, nil
}

func fetchQuote(ctx context.Context, fetcher OrderBookFetcher, market domain.Market) (domain.LegQuote, error) {
	quote := domain.LegQuote{Market: market}
	book, err := fetcher.FetchOrderBook(ctx, market, OrderBookDepth)
	quote.FetchedAt = time.Now().UTC()
	if err != nil {
		return quote, err
	}
	if ask, ok := book.BestAsk(); ok {
		quote.Ask = &ask
	}
	if bid, ok := book.BestBid(); ok {
		quote.Bid = &bid
	}
	return quote, nil
}

func legBid(quote domain.LegQuote, fetchErr error) (float64, error) {
	if fetchErr != nil {
		return 0, fmt.Errorf("%s: %w: %w", quote.Market, domain.ErrTriSpreadMissingPrice, fetchErr)
	}
	if quote.Bid == nil {
		return 0, fmt.Errorf("%s has no bids: %w", quote.Market, domain.ErrTriSpreadMissingPrice)
	}
	return *quote.Bid, nil
}

func legAsk(quote domain.LegQuote, fetchErr error) (float64, error) {
	if fetchErr != nil {
		return 0, fetchErr
	}
	if quote.Ask == nil {
		return 0, fmt.Errorf("%s has no asks: %w", quote.Market, domain.ErrEmptyOrderBook)
	}
	return *quote.Ask, nil
}
