package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"arbmonitor/internal/adapters/postgres"
	"arbmonitor/internal/domain"
	"arbmonitor/internal/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgSetupOnce sync.Once

	pgContainer *tcpg.PostgresContainer
	pgConnStr   string
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgSetupOnce.Do(func() {
		startPostgres(t)
	})

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, resetDatabase(ctx, pool))

	return pool
}

func startPostgres(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpg.Run(ctx,
		"postgres:16-alpine",
		tcpg.WithDatabase("postgres"),
		tcpg.WithUsername("postgres"),
		tcpg.WithPassword("postgres"),
	)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	require.Eventually(t, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return sqlDB.PingContext(pingCtx) == nil
	}, 15*time.Second, 500*time.Millisecond)

	require.NoError(t, db.Migrate(ctx, sqlDB, db.DialectPostgres))

	pgContainer = pg
	pgConnStr = dsn
}

func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `truncate table spreads, tri_spreads, exchange_snapshots restart identity cascade`)
	return err
}

func price(v float64) *float64 { return &v }

func testSpread(buy, sell string, ask, bid float64) domain.Spread {
	at := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	return domain.Spread{
		Buy:        domain.PriceSnapshot{Exchange: buy, Pair: domain.BTCUSD, Ask: price(ask), Bid: price(ask - 1), RefreshedAt: at},
		Sell:       domain.PriceSnapshot{Exchange: sell, Pair: domain.BTCUSD, Ask: price(bid + 1), Bid: price(bid), RefreshedAt: at},
		Pair:       domain.BTCUSD,
		Value:      bid - ask,
		RecordedAt: at,
	}
}

// ---------- SpreadRepository tests ----------

func TestSpreadRepository_SaveSpread_StoresSnapshots(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSpreadRepository(pool)
	ctx := context.Background()
	cycleID := uuid.New()

	require.NoError(t, repo.SaveSpread(ctx, cycleID, testSpread("bitstamp", "coinbase", 100, 104)))

	var (
		gotCycle            uuid.UUID
		buyEx, sellEx, pair string
		buyAsk, sellBid, sp float64
	)
	err := pool.QueryRow(ctx, `
		select cycle_id, buy_exchange, sell_exchange, currency_pair, buy_ask_price, sell_bid_price, spread
		from spreads`).Scan(&gotCycle, &buyEx, &sellEx, &pair, &buyAsk, &sellBid, &sp)
	require.NoError(t, err)
	require.Equal(t, cycleID, gotCycle)
	require.Equal(t, "bitstamp", buyEx)
	require.Equal(t, "coinbase", sellEx)
	require.Equal(t, "BTC/USD", pair)
	require.InDelta(t, 100.0, buyAsk, 1e-9)
	require.InDelta(t, 104.0, sellBid, 1e-9)
	require.InDelta(t, 4.0, sp, 1e-9)

	var snapshots int
	require.NoError(t, pool.QueryRow(ctx, `select count(*) from exchange_snapshots where cycle_id = $1`, cycleID).Scan(&snapshots))
	require.Equal(t, 2, snapshots)
}

func TestSpreadRepository_SaveSpread_DuplicateRollsBack(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSpreadRepository(pool)
	ctx := context.Background()
	cycleID := uuid.New()
	s := testSpread("bitstamp", "coinbase", 100, 104)

	require.NoError(t, repo.SaveSpread(ctx, cycleID, s))
	require.Error(t, repo.SaveSpread(ctx, cycleID, s))
	require.NoError(t, repo.SaveSpread(ctx, cycleID, testSpread("bitfinex", "coinbase", 101, 104)))

	var spreads, snapshots int
	require.NoError(t, pool.QueryRow(ctx, `select count(*) from spreads`).Scan(&spreads))
	require.NoError(t, pool.QueryRow(ctx, `select count(*) from exchange_snapshots`).Scan(&snapshots))
	require.Equal(t, 2, spreads)
	require.Equal(t, 4, snapshots, "snapshots of the failed record must be rolled back")
}

func TestSpreadRepository_SaveSpread_NullPricesInSnapshot(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSpreadRepository(pool)
	ctx := context.Background()

	s := testSpread("bitstamp", "coinbase", 100, 104)
	s.Buy.Bid = nil
	s.Buy.RefreshedAt = time.Time{}
	require.NoError(t, repo.SaveSpread(ctx, uuid.New(), s))

	var nullBids int
	require.NoError(t, pool.QueryRow(ctx, `select count(*) from exchange_snapshots where last_bid is null and refreshed_at is null`).Scan(&nullBids))
	require.Equal(t, 1, nullBids)
}

func TestSpreadRepository_SaveTriSpread(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSpreadRepository(pool)
	ctx := context.Background()

	at := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	legs := [3]domain.Market{{Base: "BNB", Quote: "BTC"}, {Base: "ADA", Quote: "BNB"}, {Base: "ADA", Quote: "BTC"}}
	tri := domain.TriSpread{
		Route: domain.TriangularRoute{Exchange: "binance", Legs: legs},
		Quotes: [3]domain.LegQuote{
			{Market: legs[0], Ask: price(0.0101), Bid: price(0.01), FetchedAt: at},
			{Market: legs[1], Bid: price(0.00049), FetchedAt: at},
			{Market: legs[2], Ask: price(0.0051), Bid: price(0.005), FetchedAt: at},
		},
		Prices:       [3]float64{0.01, 1e-9, 0.005},
		Leg2Fallback: true,
		Value:        -0.01,
		RecordedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.SaveTriSpread(ctx, uuid.New(), tri))

	var (
		leg1, leg2, leg3 string
		fallback         bool
		sp               float64
	)
	err := pool.QueryRow(ctx, `select leg1_symbol, leg2_symbol, leg3_symbol, leg2_fallback, spread from tri_spreads`).
		Scan(&leg1, &leg2, &leg3, &fallback, &sp)
	require.NoError(t, err)
	require.Equal(t, []string{"BNBBTC", "ADABNB", "ADABTC"}, []string{leg1, leg2, leg3})
	require.True(t, fallback)
	require.InDelta(t, -0.01, sp, 1e-12)

	rows, err := pool.Query(ctx, `
		select s.exchange, s.currency_pair, s.last_ask, s.last_bid, s.refreshed_at
		from tri_spreads t
		join exchange_snapshots s on s.id in (t.leg1_snapshot_id, t.leg2_snapshot_id, t.leg3_snapshot_id)
		order by s.id`)
	require.NoError(t, err)
	defer rows.Close()

	var i int
	for rows.Next() {
		var (
			exchange, pair string
			ask, bid       *float64
			refreshedAt    time.Time
		)
		require.NoError(t, rows.Scan(&exchange, &pair, &ask, &bid, &refreshedAt))
		require.Equal(t, "binance", exchange)
		require.Equal(t, legs[i].String(), pair)
		require.Equal(t, tri.Quotes[i].Ask, ask)
		require.Equal(t, tri.Quotes[i].Bid, bid)
		require.True(t, at.Equal(refreshedAt))
		i++
	}
	require.NoError(t, rows.Err())
	require.Equal(t, 3, i)
}

func TestSpreadRepository_CanceledContext(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSpreadRepository(pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, repo.SaveSpread(ctx, uuid.New(), testSpread("a", "b", 1, 2)))
}
