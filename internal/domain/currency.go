package domain

import (
	"fmt"
	"strings"
)

// CurrencyPair is one of the fiat/crypto pairs tracked by inter-exchange monitoring.
type CurrencyPair string

const (
	BTCUSD CurrencyPair = "BTC/USD"
	BTCEUR CurrencyPair = "BTC/EUR"
	BCHUSD CurrencyPair = "BCH/USD"
	BCHEUR CurrencyPair = "BCH/EUR"
	ETHUSD CurrencyPair = "ETH/USD"
	ETHEUR CurrencyPair = "ETH/EUR"
	BNBBTC CurrencyPair = "BNB/BTC"
)

var supportedPairs = map[CurrencyPair]struct{}{
	BTCUSD: {}, BTCEUR: {}, BCHUSD: {}, BCHEUR: {}, ETHUSD: {}, ETHEUR: {}, BNBBTC: {},
}

// ParseCurrencyPair accepts "BTC/USD", "btc-usd" or "BTC_USD".
func ParseCurrencyPair(s string) (CurrencyPair, error) {
	m, err := ParseMarket(s)
	if err != nil {
		return "", err
	}
	p := CurrencyPair(m.String())
	if _, ok := supportedPairs[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPair, s)
	}
	return p, nil
}

func (p CurrencyPair) Market() Market {
	base, quote, _ := strings.Cut(string(p), "/")
	return Market{Base: base, Quote: quote}
}

func (p CurrencyPair) String() string { return string(p) }

// Market is an arbitrary base/quote trade pair, e.g. a triangular leg like ADA/BNB.
type Market struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

func ParseMarket(s string) (Market, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, sep := range []string{"/", "-", "_"} {
		if base, quote, ok := strings.Cut(s, sep); ok {
			if base == "" || quote == "" || base == quote {
				break
			}
			return Market{Base: base, Quote: quote}, nil
		}
	}
	return Market{}, fmt.Errorf("%w: %q", ErrUnsupportedPair, s)
}

func (m Market) String() string { return m.Base + "/" + m.Quote }

// Symbol is the concatenated exchange symbol, e.g. "BNBBTC".
func (m Market) Symbol() string { return m.Base + m.Quote }

// MonitorType selects which monitor loop a process drives.
type MonitorType string

const (
	MonitorInter MonitorType = "inter"
	MonitorTri   MonitorType = "tri"
)

func ParseMonitorType(s string) (MonitorType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inter", "inter_exchange", "start_inter":
		return MonitorInter, nil
	case "tri", "triangular", "start_tri":
		return MonitorTri, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMonitorType, s)
}
