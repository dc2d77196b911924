package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPrice          = errors.New("price source has no ask/bid yet")
	ErrDifferentCurrencies   = errors.New("price sources quote different currency pairs")
	ErrTriSpreadMissingPrice = errors.New("triangular leg price unavailable")
	ErrEmptyOrderBook        = errors.New("order book has no price levels")
	ErrRateLimited           = errors.New("rate limited by exchange")
	ErrUnsupportedPair       = errors.New("currency pair not supported")
	ErrUnsupportedExchange   = errors.New("exchange not supported")
	ErrInvalidRoute          = errors.New("triangular route does not close a currency loop")
	ErrUnknownMonitorType    = errors.New("unknown monitor type")
	ErrMonitorNotRunning     = errors.New("monitor is not running")
	ErrNoBatchYet            = errors.New("no batch computed yet")
)

// RefreshError reports a failed price refresh for one exchange/pair.
type RefreshError struct {
	Exchange string
	Pair     string
	Err      error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh %s %s: %v", e.Exchange, e.Pair, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// SinkWriteError reports a single record that a sink failed to persist.
type SinkWriteError struct {
	Sink   string
	Record string
	Err    error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("sink %s failed to write %s: %v", e.Sink, e.Record, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }
