package adapters

import (
	"context"

	"arbmonitor/internal/domain"

	"github.com/google/uuid"
)

// Exchange is the public market-data surface every venue adapter implements.
type Exchange interface {
	Name() string
	FetchTicker(ctx context.Context, pair domain.CurrencyPair) (domain.Ticker, error)
	FetchOrderBook(ctx context.Context, market domain.Market, depth int) (domain.OrderBook, error)
}

type SpreadRepository interface {
	SaveSpread(ctx context.Context, cycleID uuid.UUID, spread domain.Spread) error
	SaveTriSpread(ctx context.Context, cycleID uuid.UUID, spread domain.TriSpread) error
}

type BatchCache interface {
	SetInter(batch domain.InterBatch)
	LatestInter() (domain.InterBatch, bool)
	SetTri(batch domain.TriBatch)
	LatestTri() (domain.TriBatch, bool)
}

type Notifier interface {
	NotifySpread(ctx context.Context, spread domain.Spread) error
	NotifyTriSpread(ctx context.Context, spread domain.TriSpread) error
}

type Publisher interface {
	Publish(topic string, payload []byte)
}
