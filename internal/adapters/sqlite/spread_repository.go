package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"arbmonitor/internal/domain"
	"arbmonitor/internal/platform/db"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

// Open opens the database file, applies migrations and returns the handle.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	conn, err := sql.Open(driverName, fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite allows a single writer
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err = db.Migrate(ctx, conn, db.DialectSQLite); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

type SpreadRepository struct {
	db *sql.DB
}

func NewSpreadRepository(db *sql.DB) *SpreadRepository {
	return &SpreadRepository{db: db}
}

func (r *SpreadRepository) SaveSpread(ctx context.Context, cycleID uuid.UUID, spread domain.Spread) error {
	const insertSpread = `
		insert into spreads (
			cycle_id, buy_snapshot_id, sell_snapshot_id, buy_exchange, sell_exchange,
			currency_pair, buy_ask_price, sell_bid_price, spread, recorded_at
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	buyID, err := insertSnapshot(ctx, tx, cycleID, spread.Buy)
	if err != nil {
		return err
	}
	sellID, err := insertSnapshot(ctx, tx, cycleID, spread.Sell)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, insertSpread,
		cycleID.String(), buyID, sellID, spread.Buy.Exchange, spread.Sell.Exchange,
		spread.Pair.String(), spread.BuyPrice(), spread.SellPrice(), spread.Value, spread.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert spread %s: %w", spread.Key(), err)
	}
	if err = tx.Commit(); err != nil {
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
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var legIDs [3]int64
	for i, quote := range spread.Quotes {
		if legIDs[i], err = insertSnapshot(ctx, tx, cycleID, quote.Snapshot(spread.Route.Exchange)); err != nil {
			return err
		}
	}

	symbols := spread.Route.Symbols()
	_, err = tx.ExecContext(ctx, insertTriSpread,
		cycleID.String(), spread.Route.Exchange, symbols[0], symbols[1], symbols[2],
		legIDs[0], legIDs[1], legIDs[2],
		spread.Prices[0], spread.Prices[1], spread.Prices[2], spread.Leg2Fallback, spread.Value, spread.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert triangular spread %s: %w", spread.Route, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, cycleID uuid.UUID, snap domain.PriceSnapshot) (int64, error) {
	const q = `
		insert into exchange_snapshots (cycle_id, exchange, currency_pair, last_ask, last_bid, refreshed_at)
		values (?, ?, ?, ?, ?, ?);
	`

	var refreshedAt sql.NullTime
	if !snap.RefreshedAt.IsZero() {
		refreshedAt = sql.NullTime{Time: snap.RefreshedAt.UTC(), Valid: true}
	}

	res, err := tx.ExecContext(ctx, q,
		cycleID.String(), snap.Exchange, snap.Pair.String(), nullFloat(snap.Ask), nullFloat(snap.Bid), refreshedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s snapshot: %w", snap.Exchange, err)
	}
	return res.LastInsertId()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

