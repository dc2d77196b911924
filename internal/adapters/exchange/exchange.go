package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arbmonitor/internal/adapters"
	"arbmonitor/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	Bitstamp = "bitstamp"
	Coinbase = "coinbase"
	Bitfinex = "bitfinex"
	Binance  = "binance"
	Luno     = "luno"
)

const defaultRequestsPerSecond = 5

type Options struct {
	HTTPClient *http.Client
	// BaseURL overrides the public API root, used by tests.
	BaseURL           string
	RequestsPerSecond float64
}

// New resolves an exchange adapter by its configured name.
func New(name string, opts Options) (adapters.Exchange, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Bitstamp, "bitstamp.net":
		return NewBitstampClient(opts), nil
	case Coinbase, "gdax":
		return NewCoinbaseClient(opts), nil
	case Bitfinex:
		return NewBitfinexClient(opts), nil
	case Binance:
		return NewBinanceClient(opts), nil
	case Luno:
		return NewLunoClient(opts), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedExchange, name)
}

// restClient is the shared HTTP plumbing of the JSON exchange adapters.
type restClient struct {
	name    string
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

func newRestClient(name, defaultBaseURL string, opts Options) restClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return restClient{
		name:    name,
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *restClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to parse %s URL: %w", c.name, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	if err = c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s request not sent: %w", c.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request %q: %w", c.name, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request %q: %w", c.name, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s %q: %w", c.name, path, domain.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d from %s %q: %s", resp.StatusCode, c.name, path, resp.Status)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response %q: %w", c.name, path, err)
	}
	return nil
}

// tickerFromDecimals validates and converts a quoted ask/bid pair.
func tickerFromDecimals(ask, bid decimal.Decimal) (domain.Ticker, error) {
	if !ask.IsPositive() || !bid.IsPositive() {
		return domain.Ticker{}, fmt.Errorf("malformed ticker ask=%s bid=%s: %w", ask, bid, domain.ErrMissingPrice)
	}
	return domain.Ticker{Ask: ask.InexactFloat64(), Bid: bid.InexactFloat64()}, nil
}

// levelsFromArrays converts [["price","volume",...], ...] depth rows.
func levelsFromArrays(rows [][]json.RawMessage) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("malformed depth row with %d fields", len(row))
		}
		var price, volume decimal.Decimal
		if err := json.Unmarshal(row[0], &price); err != nil {
			return nil, fmt.Errorf("malformed depth price: %w", err)
		}
		if err := json.Unmarshal(row[1], &volume); err != nil {
			return nil, fmt.Errorf("malformed depth volume: %w", err)
		}
		levels = append(levels, domain.PriceLevel{Price: price.InexactFloat64(), Volume: volume.Abs().InexactFloat64()})
	}
	return levels, nil
}

func checkBook(book domain.OrderBook) (domain.OrderBook, error) {
	if len(book.Asks) == 0 && len(book.Bids) == 0 {
		return domain.OrderBook{}, fmt.Errorf("%s: %w", book.Market, domain.ErrEmptyOrderBook)
	}
	return book, nil
}

func lowerSymbol(m domain.Market) string { return strings.ToLower(m.Symbol()) }
