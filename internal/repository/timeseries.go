package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"
)

// PriceTick is a single timestamped price sample appended to a token's
// series.
type PriceTick struct {
	Address  string
	PriceUsd decimal.Decimal
	Ts       time.Time
}

// TimeseriesStore is an append-only store of per-token price history.
// Given a non-empty DSN it persists to ClickHouse for durability across
// restarts; given an empty one it falls back to an in-memory ring per
// address, mirroring the createStores(useMemory) split the surveyed
// solana-token-lab server uses. No pipeline component constructs a
// TimeseriesStore, and CLICKHOUSE_DSN is not passed to it.
type TimeseriesStore interface {
	Append(ctx context.Context, tick PriceTick) error
	Series(ctx context.Context, address string, limit int) ([]PriceTick, error)
	Close() error
}

// NewTimeseriesStore returns a ClickHouse-backed store when dsn is
// non-empty, or an in-memory store bounded to ringSize entries per
// address otherwise.
func NewTimeseriesStore(dsn string, ringSize int) (TimeseriesStore, error) {
	if dsn == "" {
		return newMemoryTimeseriesStore(ringSize), nil
	}
	return newClickhouseTimeseriesStore(dsn)
}

// --- ClickHouse-backed store ---

type clickhouseTimeseriesStore struct {
	conn driver.Conn
}

func newClickhouseTimeseriesStore(dsn string) (*clickhouseTimeseriesStore, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}
	return &clickhouseTimeseriesStore{conn: conn}, nil
}

func (s *clickhouseTimeseriesStore) Append(ctx context.Context, tick PriceTick) error {
	return s.conn.Exec(ctx,
		`INSERT INTO price_ticks (address, price_usd, ts) VALUES (?, ?, ?)`,
		tick.Address, tick.PriceUsd.String(), tick.Ts,
	)
}

func (s *clickhouseTimeseriesStore) Series(ctx context.Context, address string, limit int) ([]PriceTick, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT address, price_usd, ts FROM price_ticks WHERE address = ? ORDER BY ts DESC LIMIT ?`,
		address, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceTick
	for rows.Next() {
		var addr, priceStr string
		var ts time.Time
		if err := rows.Scan(&addr, &priceStr, &ts); err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, err
		}
		out = append(out, PriceTick{Address: addr, PriceUsd: price, Ts: ts})
	}
	return out, rows.Err()
}

func (s *clickhouseTimeseriesStore) Close() error {
	return s.conn.Close()
}

// --- in-memory fallback ---

type memoryTimeseriesStore struct {
	mu       sync.Mutex
	ringSize int
	byAddr   map[string][]PriceTick
}

func newMemoryTimeseriesStore(ringSize int) *memoryTimeseriesStore {
	if ringSize <= 0 {
		ringSize = 500
	}
	return &memoryTimeseriesStore{ringSize: ringSize, byAddr: make(map[string][]PriceTick)}
}

func (s *memoryTimeseriesStore) Append(_ context.Context, tick PriceTick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	series := append(s.byAddr[tick.Address], tick)
	if len(series) > s.ringSize {
		series = series[len(series)-s.ringSize:]
	}
	s.byAddr[tick.Address] = series
	return nil
}

func (s *memoryTimeseriesStore) Series(_ context.Context, address string, limit int) ([]PriceTick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	series := s.byAddr[address]
	if limit <= 0 || limit > len(series) {
		limit = len(series)
	}
	out := make([]PriceTick, limit)
	copy(out, series[len(series)-limit:])
	// newest first, matching the ClickHouse store's ORDER BY ts DESC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *memoryTimeseriesStore) Close() error { return nil }
