package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arbmonitor/internal/domain"
	"arbmonitor/internal/spread"
)

const (
	defaultWorkers        = 5
	defaultRequestTimeout = 5 * time.Second
	defaultPollInterval   = 5 * time.Second
)

// UpdateAction consumes the batch produced by a cycle.
type UpdateAction interface {
	Name() string
	RunInter(ctx context.Context, batch domain.InterBatch) error
	RunTri(ctx context.Context, batch domain.TriBatch) error
}

// Route binds a triangular route to the exchange its legs are fetched from.
type Route struct {
	domain.TriangularRoute
	Fetcher spread.OrderBookFetcher
}

// Configuration is built once at startup and never mutated afterwards.
type Configuration struct {
	PriceSources     []*PriceSource
	TriangularRoutes []Route
	UpdateActions    []UpdateAction
	PollInterval     time.Duration
	MinSpread        float64
	Workers          int
	RequestTimeout   time.Duration
}

func (c *Configuration) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
}

func (c Configuration) Validate() error {
	var errs []error
	if c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval))
	}

	seen := make(map[string]struct{}, len(c.PriceSources))
	for i, s := range c.PriceSources {
		if s == nil {
			errs = append(errs, fmt.Errorf("price source #%d is nil", i))
			continue
		}
		key := s.Exchange() + ":" + s.Pair().String()
		if _, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("duplicate price source %s", key))
		}
		seen[key] = struct{}{}
	}

	for _, r := range c.TriangularRoutes {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
		if r.Fetcher == nil {
			errs = append(errs, fmt.Errorf("route %s has no exchange", r.String()))
		}
	}

	for i, a := range c.UpdateActions {
		if a == nil {
			errs = append(errs, fmt.Errorf("update action #%d is nil", i))
		}
	}
	return errors.Join(errs...)
}
