package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"arbmonitor/internal/adapters"
	"arbmonitor/internal/adapters/exchange"
	"arbmonitor/internal/config"
	"arbmonitor/internal/domain"
	"arbmonitor/internal/monitor"
	"arbmonitor/internal/sink"
)

const (
	SinkDatabase  = "database"
	SinkCSV       = "csv"
	SinkCache     = "cache"
	SinkDiscord   = "discord"
	SinkBroadcast = "broadcast"
)

// Resources are the shared adapters update actions are built on.
// Any of them may be nil when the matching feature is not configured.
type Resources struct {
	ExchangeOptions exchange.Options
	Repository      adapters.SpreadRepository
	Cache           adapters.BatchCache
	Publisher       adapters.Publisher
	Notifier        adapters.Notifier
}

// BuildMonitorConfiguration turns the loaded config into the monitor's immutable
// configuration. Every invalid entry is reported, not only the first one.
func BuildMonitorConfiguration(cfg *config.AppConfig, monitorType domain.MonitorType, res Resources) (monitor.Configuration, error) {
	out := monitor.Configuration{
		PollInterval:   time.Duration(cfg.Monitor.PollIntervalSeconds * float64(time.Second)),
		MinSpread:      cfg.Monitor.MinSpread,
		Workers:        cfg.Monitor.Workers,
		RequestTimeout: time.Duration(cfg.Monitor.RequestTimeoutSecs) * time.Second,
	}
	if out.PollInterval <= 0 {
		return out, fmt.Errorf("monitor.poll_interval_seconds must be positive, got %v", cfg.Monitor.PollIntervalSeconds)
	}

	registry := newExchangeRegistry(res.ExchangeOptions)
	var errs []error
	var sinks []config.Sink

	switch monitorType {
	case domain.MonitorInter:
		sinks = cfg.Inter.Sinks
		for i, src := range cfg.Inter.Sources {
			ex, err := registry.get(src.Exchange)
			if err != nil {
				errs = append(errs, fmt.Errorf("inter.sources[%d]: %w", i, err))
				continue
			}
			pair, err := domain.ParseCurrencyPair(src.Pair)
			if err != nil {
				errs = append(errs, fmt.Errorf("inter.sources[%d]: %w", i, err))
				continue
			}
			out.PriceSources = append(out.PriceSources, monitor.NewPriceSource(ex, pair))
		}
	case domain.MonitorTri:
		sinks = cfg.Tri.Sinks
		for i, rc := range cfg.Tri.Routes {
			route, err := buildRoute(registry, rc)
			if err != nil {
				errs = append(errs, fmt.Errorf("tri.routes[%d]: %w", i, err))
				continue
			}
			out.TriangularRoutes = append(out.TriangularRoutes, route)
		}
	default:
		return out, fmt.Errorf("%w: %q", domain.ErrUnknownMonitorType, monitorType)
	}

	for i, sc := range sinks {
		action, err := buildSink(cfg, monitorType, sc, res)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s.sinks[%d]: %w", monitorType, i, err))
			continue
		}
		out.UpdateActions = append(out.UpdateActions, action)
	}

	if err := errors.Join(errs...); err != nil {
		return out, err
	}
	return out, out.Validate()
}

func buildRoute(registry *exchangeRegistry, rc config.Route) (monitor.Route, error) {
	if len(rc.Symbols) != 3 {
		return monitor.Route{}, fmt.Errorf("%w: need 3 symbols, got %d", domain.ErrInvalidRoute, len(rc.Symbols))
	}
	ex, err := registry.get(rc.Exchange)
	if err != nil {
		return monitor.Route{}, err
	}

	route := domain.TriangularRoute{Exchange: ex.Name()}
	for i, sym := range rc.Symbols {
		market, parseErr := domain.ParseMarket(sym)
		if parseErr != nil {
			return monitor.Route{}, parseErr
		}
		route.Legs[i] = market
	}
	if err = route.Validate(); err != nil {
		return monitor.Route{}, err
	}
	return monitor.Route{TriangularRoute: route, Fetcher: ex}, nil
}

func buildSink(cfg *config.AppConfig, monitorType domain.MonitorType, sc config.Sink, res Resources) (monitor.UpdateAction, error) {
	threshold := sink.Threshold(sc.MinSpread)

	switch strings.ToLower(strings.TrimSpace(sc.Type)) {
	case SinkDatabase:
		if res.Repository == nil {
			return nil, errors.New("database sink requires storage")
		}
		return sink.NewDatabaseSink(res.Repository, threshold), nil
	case SinkCSV:
		mode, err := sink.ParseMode(sc.Mode)
		if err != nil {
			return nil, err
		}
		path := sc.Path
		if path == "" {
			path = string(monitorType) + "_spreads.csv"
		}
		return sink.NewCSVSink(path, mode, threshold)
	case SinkCache:
		if res.Cache == nil {
			return nil, errors.New("cache sink requires the batch cache")
		}
		return sink.NewCacheSink(res.Cache), nil
	case SinkDiscord:
		if res.Notifier == nil {
			return nil, errors.New("discord sink requires discord.webhook_url")
		}
		notifyAt := cfg.Monitor.MinSpread
		if sc.MinSpread != nil {
			notifyAt = *sc.MinSpread
		}
		cooldown := time.Duration(cfg.Discord.CooldownSeconds) * time.Second
		return sink.NewNotifySink(res.Notifier, notifyAt, cooldown), nil
	case SinkBroadcast:
		if res.Publisher == nil {
			return nil, errors.New("broadcast sink requires http_server.port")
		}
		return sink.NewBroadcastSink(res.Publisher), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", sc.Type)
	}
}

// SinkConfigured reports whether the monitor type has a sink of the given type.
func SinkConfigured(cfg *config.AppConfig, monitorType domain.MonitorType, sinkType string) bool {
	sinks := cfg.Inter.Sinks
	if monitorType == domain.MonitorTri {
		sinks = cfg.Tri.Sinks
	}
	for _, sc := range sinks {
		if strings.EqualFold(strings.TrimSpace(sc.Type), sinkType) {
			return true
		}
	}
	return false
}

// exchangeRegistry hands out one adapter per exchange so sources on the same
// venue share its rate limiter.
type exchangeRegistry struct {
	opts      exchange.Options
	exchanges map[string]adapters.Exchange
}

func newExchangeRegistry(opts exchange.Options) *exchangeRegistry {
	return &exchangeRegistry{opts: opts, exchanges: make(map[string]adapters.Exchange)}
}

func (r *exchangeRegistry) get(name string) (adapters.Exchange, error) {
	ex, err := exchange.New(name, r.opts)
	if err != nil {
		return nil, err
	}
	if existing, ok := r.exchanges[ex.Name()]; ok {
		return existing, nil
	}
	r.exchanges[ex.Name()] = ex
	return ex, nil
}
