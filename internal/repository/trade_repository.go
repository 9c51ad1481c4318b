package repository

import (
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"solmeme-pipeline/internal/domain"
)

// ErrTradeNotFound is returned when no trade row matches the query.
var ErrTradeNotFound = errors.New("trade not found")

// TradeRepository persists closed Positions as trade history, following
// the teacher's OrderRepository (internal/repository/order_repository.go)
// column-for-field Create/GetByID/GetRecent shape.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository returns a repository bound to db.
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create records a closed position as a completed trade.
func (r *TradeRepository) Create(pos *domain.Position) error {
	query := `
		INSERT INTO trades (id, address, symbol, opened_at, entry_price_usd, size_usd,
			stop_price_usd, take_profit_price_usd, trailing_high_usd, status, close_reason,
			realized_pnl_usd, last_price_usd, last_update_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(
		query,
		pos.ID,
		canonicalAddress(pos.Address),
		pos.Symbol,
		pos.OpenedAt,
		pos.EntryPriceUsd.String(),
		pos.SizeUsd.String(),
		pos.StopPriceUsd.String(),
		pos.TakeProfitPriceUsd.String(),
		pos.TrailingHighUsd.String(),
		string(pos.Status),
		string(pos.CloseReason),
		pos.RealizedPnlUsd.String(),
		pos.LastPriceUsd.String(),
		pos.LastUpdateAt,
	)
	return err
}

// GetByID returns a single trade by its position ID.
func (r *TradeRepository) GetByID(id string) (*domain.Position, error) {
	query := `
		SELECT id, address, symbol, opened_at, entry_price_usd, size_usd,
			stop_price_usd, take_profit_price_usd, trailing_high_usd, status, close_reason,
			realized_pnl_usd, last_price_usd, last_update_at
		FROM trades
		WHERE id = $1`

	pos, err := scanTrade(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	return pos, nil
}

// GetByAddress returns every closed trade recorded for address, newest first.
func (r *TradeRepository) GetByAddress(address string) ([]*domain.Position, error) {
	query := `
		SELECT id, address, symbol, opened_at, entry_price_usd, size_usd,
			stop_price_usd, take_profit_price_usd, trailing_high_usd, status, close_reason,
			realized_pnl_usd, last_price_usd, last_update_at
		FROM trades
		WHERE address = $1
		ORDER BY opened_at DESC`

	rows, err := r.db.Query(query, canonicalAddress(address))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Position
	for rows.Next() {
		pos, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

// GetRecent returns the most recent limit closed trades across all addresses.
func (r *TradeRepository) GetRecent(limit int) ([]*domain.Position, error) {
	query := `
		SELECT id, address, symbol, opened_at, entry_price_usd, size_usd,
			stop_price_usd, take_profit_price_usd, trailing_high_usd, status, close_reason,
			realized_pnl_usd, last_price_usd, last_update_at
		FROM trades
		ORDER BY opened_at DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Position
	for rows.Next() {
		pos, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

// CreateBatch inserts many closed trades in a single transaction. A
// bulk-insert endpoint for the backfill/replay path; pgx's CopyFrom is
// not used here since it has no grounded precedent in the reference
// repos this module learned from (see DESIGN.md), so a batched
// transaction is the reused idiom instead.
func (r *TradeRepository) CreateBatch(positions []*domain.Position) error {
	if len(positions) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO trades (id, address, symbol, opened_at, entry_price_usd, size_usd,
			stop_price_usd, take_profit_price_usd, trailing_high_usd, status, close_reason,
			realized_pnl_usd, last_price_usd, last_update_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, pos := range positions {
		_, err := stmt.Exec(
			pos.ID,
			canonicalAddress(pos.Address),
			pos.Symbol,
			pos.OpenedAt,
			pos.EntryPriceUsd.String(),
			pos.SizeUsd.String(),
			pos.StopPriceUsd.String(),
			pos.TakeProfitPriceUsd.String(),
			pos.TrailingHighUsd.String(),
			string(pos.Status),
			string(pos.CloseReason),
			pos.RealizedPnlUsd.String(),
			pos.LastPriceUsd.String(),
			pos.LastUpdateAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanTrade(row rowScanner) (*domain.Position, error) {
	pos := &domain.Position{}
	var status, closeReason string
	var entry, size, stop, takeProfit, trailingHigh, realizedPnl, lastPrice string

	err := row.Scan(
		&pos.ID,
		&pos.Address,
		&pos.Symbol,
		&pos.OpenedAt,
		&entry,
		&size,
		&stop,
		&takeProfit,
		&trailingHigh,
		&status,
		&closeReason,
		&realizedPnl,
		&lastPrice,
		&pos.LastUpdateAt,
	)
	if err != nil {
		return nil, err
	}

	pos.Status = domain.PositionStatus(status)
	pos.CloseReason = domain.CloseReason(closeReason)

	for _, pair := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&pos.EntryPriceUsd, entry},
		{&pos.SizeUsd, size},
		{&pos.StopPriceUsd, stop},
		{&pos.TakeProfitPriceUsd, takeProfit},
		{&pos.TrailingHighUsd, trailingHigh},
		{&pos.RealizedPnlUsd, realizedPnl},
		{&pos.LastPriceUsd, lastPrice},
	} {
		v, err := decimal.NewFromString(pair.src)
		if err != nil {
			return nil, err
		}
		*pair.dst = v
	}

	return pos, nil
}
