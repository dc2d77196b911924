package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"arbmonitor/internal/domain"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(srv *httptest.Server) Options {
	return Options{HTTPClient: srv.Client(), BaseURL: srv.URL, RequestsPerSecond: 100}
}

func TestNew_ResolvesByName(t *testing.T) {
	for name, want := range map[string]string{
		"Bitstamp": Bitstamp,
		"gdax":     Coinbase,
		"coinbase": Coinbase,
		"BITFINEX": Bitfinex,
		"binance":  Binance,
		"luno":     Luno,
	} {
		ex, err := New(name, Options{})
		require.NoError(t, err)
		require.Equal(t, want, ex.Name())
	}

	_, err := New("mtgox", Options{})
	require.ErrorIs(t, err, domain.ErrUnsupportedExchange)
}

func TestBitstampClient_FetchTicker(t *testing.T) {
	var gotPath string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ask": "27011.50", "bid": "27009.00", "last": "27010"}`))
	})

	c := NewBitstampClient(testOptions(srv))
	ticker, err := c.FetchTicker(context.Background(), domain.BTCUSD)
	require.NoError(t, err)
	require.Equal(t, "/api/v2/ticker/btcusd/", gotPath)
	require.InDelta(t, 27011.50, ticker.Ask, 1e-9)
	require.InDelta(t, 27009.00, ticker.Bid, 1e-9)
}

func TestBitstampClient_FetchOrderBook(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/order_book/ethusd/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"bids": [["1800.10", "2.5"], ["1800.00", "1"], ["1799.00", "4"]],
			"asks": [["1800.50", "0.7"], ["1801.00", "3"]]
		}`))
	})

	c := NewBitstampClient(testOptions(srv))
	book, err := c.FetchOrderBook(context.Background(), domain.ETHUSD.Market(), 2)
	require.NoError(t, err)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	require.InDelta(t, 1800.50, ask, 1e-9)
	bid, ok := book.BestBid()
	require.True(t, ok)
	require.InDelta(t, 1800.10, bid, 1e-9)
}

func TestCoinbaseClient_FetchTickerAndBook(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/BTC-EUR/ticker":
			_, _ = w.Write([]byte(`{"ask": "25000.01", "bid": "24999.99", "volume": "10"}`))
		case "/products/BTC-EUR/book":
			_, _ = w.Write([]byte(`{"bids": [["24999.99", "0.5", 3]], "asks": [["25000.01", "0.2", 1]], "sequence": 42}`))
		default:
			http.NotFound(w, r)
		}
	})

	c := NewCoinbaseClient(testOptions(srv))
	ticker, err := c.FetchTicker(context.Background(), domain.BTCEUR)
	require.NoError(t, err)
	require.InDelta(t, 25000.01, ticker.Ask, 1e-9)
	require.InDelta(t, 24999.99, ticker.Bid, 1e-9)

	book, err := c.FetchOrderBook(context.Background(), domain.BTCEUR.Market(), 10)
	require.NoError(t, err)
	require.Equal(t, []domain.PriceLevel{{Price: 25000.01, Volume: 0.2}}, book.Asks)
}

func TestBitfinexClient_FetchTickerAndBook(t *testing.T) {
	var gotLimitBids string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/pubticker/btcusd":
			_, _ = w.Write([]byte(`{"mid": "100.5", "bid": "100", "ask": "101"}`))
		case "/v1/book/btcusd":
			gotLimitBids = r.URL.Query().Get("limit_bids")
			_, _ = w.Write([]byte(`{
				"bids": [{"price": "100", "amount": "1.5", "timestamp": "1"}],
				"asks": [{"price": "101", "amount": "0.5", "timestamp": "1"}]
			}`))
		default:
			http.NotFound(w, r)
		}
	})

	c := NewBitfinexClient(testOptions(srv))
	ticker, err := c.FetchTicker(context.Background(), domain.BTCUSD)
	require.NoError(t, err)
	require.Equal(t, domain.Ticker{Ask: 101, Bid: 100}, ticker)

	book, err := c.FetchOrderBook(context.Background(), domain.BTCUSD.Market(), 5)
	require.NoError(t, err)
	require.Equal(t, "5", gotLimitBids)
	bid, ok := book.BestBid()
	require.True(t, ok)
	require.Equal(t, 100.0, bid)
}

func TestBinanceClient_FetchTickerAndBook(t *testing.T) {
	var gotLimit, gotSymbol string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/ticker/bookTicker":
			_, _ = w.Write([]byte(`{"symbol": "BNBBTC", "bidPrice": "0.00830000", "bidQty": "1", "askPrice": "0.00831000", "askQty": "2"}`))
		case "/api/v3/depth":
			gotSymbol = r.URL.Query().Get("symbol")
			gotLimit = r.URL.Query().Get("limit")
			_, _ = w.Write([]byte(`{"lastUpdateId": 1, "bids": [["0.00110", "100"]], "asks": [["0.00112", "50"]]}`))
		default:
			http.NotFound(w, r)
		}
	})

	c := NewBinanceClient(testOptions(srv))
	ticker, err := c.FetchTicker(context.Background(), domain.BNBBTC)
	require.NoError(t, err)
	require.InDelta(t, 0.00831, ticker.Ask, 1e-12)
	require.InDelta(t, 0.0083, ticker.Bid, 1e-12)

	book, err := c.FetchOrderBook(context.Background(), domain.Market{Base: "ADA", Quote: "BNB"}, 3)
	require.NoError(t, err)
	require.Equal(t, "ADABNB", gotSymbol)
	require.Equal(t, "5", gotLimit)
	ask, ok := book.BestAsk()
	require.True(t, ok)
	require.InDelta(t, 0.00112, ask, 1e-12)
}

func TestRestClient_Errors(t *testing.T) {
	t.Run("status code", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		})
		_, err := NewBitstampClient(testOptions(srv)).FetchTicker(context.Background(), domain.BTCUSD)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unexpected status code 503")
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := NewBinanceClient(testOptions(srv)).FetchTicker(context.Background(), domain.BNBBTC)
		require.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("malformed json", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		})
		_, err := NewCoinbaseClient(testOptions(srv)).FetchTicker(context.Background(), domain.BTCUSD)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to decode coinbase response")
	})

	t.Run("zero prices", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ask": "0", "bid": "100"}`))
		})
		_, err := NewBitfinexClient(testOptions(srv)).FetchTicker(context.Background(), domain.BTCUSD)
		require.ErrorIs(t, err, domain.ErrMissingPrice)
	})

	t.Run("empty book", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"lastUpdateId": 1, "bids": [], "asks": []}`))
		})
		_, err := NewBinanceClient(testOptions(srv)).FetchOrderBook(context.Background(), domain.Market{Base: "ANT", Quote: "BNB"}, 5)
		require.ErrorIs(t, err, domain.ErrEmptyOrderBook)
	})

	t.Run("canceled context", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ask": "1", "bid": "1"}`))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewBitstampClient(testOptions(srv)).FetchTicker(ctx, domain.BTCUSD)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestLunoClient_FetchTickerAndBook(t *testing.T) {
	var gotPair string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/1/ticker":
			gotPair = r.URL.Query().Get("pair")
			_, _ = w.Write([]byte(`{"pair": "XBTEUR", "ask": "25010.00", "bid": "25000.00", "status": "ACTIVE"}`))
		default:
			_, _ = w.Write([]byte(`{
				"asks": [{"price": "25010.00", "volume": "0.1"}, {"price": "25020.00", "volume": "1"}],
				"bids": [{"price": "25000.00", "volume": "0.3"}]
			}`))
		}
	})

	c := NewLunoClient(Options{BaseURL: srv.URL})
	ticker, err := c.FetchTicker(context.Background(), domain.BTCEUR)
	require.NoError(t, err)
	require.Equal(t, "XBTEUR", gotPair)
	require.InDelta(t, 25010.0, ticker.Ask, 1e-9)
	require.InDelta(t, 25000.0, ticker.Bid, 1e-9)

	book, err := c.FetchOrderBook(context.Background(), domain.BTCEUR.Market(), 1)
	require.NoError(t, err)
	require.Len(t, book.Asks, 1)
	require.Len(t, book.Bids, 1)
}
