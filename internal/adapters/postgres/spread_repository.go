package postgres

import (
	"context"
	"fmt"
	"time"

	"arbmonitor/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SpreadRepository stores every record in its own transaction together with
// copies of the price snapshots it was computed from.
type SpreadRepository struct {
	pool *pgxpool.Pool
}

func NewSpreadRepository(pool *pgxpool.Pool) *SpreadRepository {
	return &SpreadRepository{pool: pool}
}

func (r *SpreadRepository) SaveSpread(ctx context.Context, cycleID uuid.UUID, spread domain.Spread) error {
	const insertSpread = `
		insert into spreads (
			cycle_id, buy_snapshot_id, sell_snapshot_id, buy_exchange, sell_exchange,
			currency_pair, buy_ask_price, sell_bid_price, spread, recorded_at
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	buyID, err := insertSnapshot(ctx, tx, cycleID, spread.Buy)
	if err != nil {
		return err
	}
	sellID, err := insertSnapshot(ctx, tx, cycleID, spread.Sell)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, insertSpread,
		cycleID, buyID, sellID, spread.Buy.Exchange, spread.Sell.Exchange,
		spread.Pair.String(), spread.BuyPrice(), spread.SellPrice(), spread.Value, spread.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert spread %s: %w", spread.Key(), err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *SpreadRepository) SaveTriSpread(ctx context.Context, cycleID uuid.UUID, spread domain.TriSpread) error {
	const insertTriSpread = `
		insert into tri_spreads (
			cycle_id, exchange, leg1_symbol, leg2_symbol, leg3_symbol,
			leg1_snapshot_id, leg2_snapshot_id, leg3_snapshot_id,
			leg1_price, leg2_price, leg3_price, leg2_fallback, spread, recorded_at
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var legIDs [3]int64
	for i, quote := range spread.Quotes {
		if legIDs[i], err = insertSnapshot(ctx, tx, cycleID, quote.Snapshot(spread.Route.Exchange)); err != nil {
			return err
		}
	}

	symbols := spread.Route.Symbols()
	_, err = tx.Exec(ctx, insertTriSpread,
		cycleID, spread.Route.Exchange, symbols[0], symbols[1], symbols[2],
		legIDs[0], legIDs[1], legIDs[2],
		spread.Prices[0], spread.Prices[1], spread.Prices[2], spread.Leg2Fallback, spread.Value, spread.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert triangular spread %s: %w", spread.Route, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx pgx.Tx, cycleID uuid.UUID, snap domain.PriceSnapshot) (int64, error) {
	const q = `
		insert into exchange_snapshots (cycle_id, exchange, currency_pair, last_ask, last_bid, refreshed_at)
		values ($1, $2, $3, $4, $5, $6)
		returning id;
	`

	var refreshedAt *time.Time
	if !snap.RefreshedAt.IsZero() {
		refreshedAt = &snap.RefreshedAt
	}

	var id int64
	err := tx.QueryRow(ctx, q, cycleID, snap.Exchange, snap.Pair.String(), snap.Ask, snap.Bid, refreshedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s snapshot: %w", snap.Exchange, err)
	}
	return id, nil
}
