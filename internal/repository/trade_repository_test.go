package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"solmeme-pipeline/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewTradeRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewTradeRepository(db)
	if repo == nil {
		t.Fatal("NewTradeRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func testPosition() *domain.Position {
	opened := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Position{
		ID:                 "pos-1",
		Address:            "So111",
		Symbol:             "FOO",
		OpenedAt:           opened,
		EntryPriceUsd:      dec("1"),
		SizeUsd:            dec("14.4"),
		StopPriceUsd:       dec("0.85"),
		TakeProfitPriceUsd: dec("1.25"),
		TrailingHighUsd:    dec("1.26"),
		Status:             domain.PositionClosed,
		CloseReason:        domain.CloseReasonTakeProfit,
		RealizedPnlUsd:     dec("3.744"),
		LastPriceUsd:       dec("1.26"),
		LastUpdateAt:       opened.Add(time.Minute),
	}
}

func TestTradeRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	pos := testPosition()

	mock.ExpectExec(`INSERT INTO trades`).
		WithArgs(
			"pos-1", "So111", "FOO", pos.OpenedAt,
			"1", "14.4", "0.85", "1.25", "1.26",
			"CLOSED", "take_profit", "3.744", "1.26", pos.LastUpdateAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewTradeRepository(db)
	if err := repo.Create(pos); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTradeRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	opened := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "address", "symbol", "opened_at", "entry_price_usd", "size_usd",
		"stop_price_usd", "take_profit_price_usd", "trailing_high_usd", "status", "close_reason",
		"realized_pnl_usd", "last_price_usd", "last_update_at",
	}).AddRow("pos-1", "So111", "FOO", opened, "1", "14.4", "0.85", "1.25", "1.26",
		"CLOSED", "take_profit", "3.744", "1.26", opened.Add(time.Minute))

	mock.ExpectQuery(`SELECT (.+) FROM trades WHERE id = \$1`).
		WithArgs("pos-1").
		WillReturnRows(rows)

	repo := NewTradeRepository(db)
	got, err := repo.GetByID("pos-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.RealizedPnlUsd.Equal(dec("3.744")) {
		t.Errorf("unexpected realized pnl: %v", got.RealizedPnlUsd)
	}
	if got.CloseReason != domain.CloseReasonTakeProfit {
		t.Errorf("unexpected close reason: %v", got.CloseReason)
	}
}

func TestTradeRepositoryGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM trades WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "address", "symbol", "opened_at", "entry_price_usd", "size_usd",
			"stop_price_usd", "take_profit_price_usd", "trailing_high_usd", "status", "close_reason",
			"realized_pnl_usd", "last_price_usd", "last_update_at",
		}))

	repo := NewTradeRepository(db)
	_, err = repo.GetByID("missing")
	if !errors.Is(err, ErrTradeNotFound) {
		t.Errorf("expected ErrTradeNotFound, got %v", err)
	}
}

func TestTradeRepositoryCreateBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	pos := testPosition()

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO trades`).
		ExpectExec().
		WithArgs(
			"pos-1", "So111", "FOO", pos.OpenedAt,
			"1", "14.4", "0.85", "1.25", "1.26",
			"CLOSED", "take_profit", "3.744", "1.26", pos.LastUpdateAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewTradeRepository(db)
	if err := repo.CreateBatch([]*domain.Position{pos}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTradeRepositoryCreateBatch_Empty(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewTradeRepository(db)
	if err := repo.CreateBatch(nil); err != nil {
		t.Fatalf("unexpected error for empty batch: %v", err)
	}
}
