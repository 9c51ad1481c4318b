package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"solmeme-pipeline/internal/domain"
)

func TestNewCandidateRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewCandidateRepository(db)
	if repo == nil {
		t.Fatal("NewCandidateRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestCandidateRepositoryCreate(t *testing.T) {
	price := 0.001

	tests := []struct {
		name        string
		candidate   *domain.TokenCandidate
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			candidate: &domain.TokenCandidate{
				Address:             "So11111111111111111111111111111111111111112",
				Symbol:              "FOO",
				Name:                "Foo Coin",
				FirstSeenAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				InitialLiquidityUsd: 5000,
				InitialPriceUsd:     &price,
				Source:              domain.SourceTag("pumpfun"),
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO candidates`).
					WithArgs(
						"So11111111111111111111111111111111111111112",
						"FOO", "Foo Coin",
						time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
						5000.0, 0.001, "pumpfun",
					).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			expectError: nil,
		},
		{
			name: "duplicate address",
			candidate: &domain.TokenCandidate{
				Address:     "So222222222222222222222222222222222222222",
				Symbol:      "BAR",
				FirstSeenAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO candidates`).
					WithArgs(
						"So222222222222222222222222222222222222222",
						"BAR", "",
						time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
						0.0, nil, "",
					).
					WillReturnError(errors.New("duplicate key value violates unique constraint"))
			},
			expectError: ErrCandidateExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewCandidateRepository(db)
			err = repo.Create(tt.candidate)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestCandidateRepositoryGetByAddress(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	seenAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"address", "symbol", "name", "first_seen_at", "initial_liquidity_usd", "initial_price_usd", "source"}).
		AddRow("So111", "FOO", "Foo Coin", seenAt, 5000.0, 0.001, "pumpfun")

	mock.ExpectQuery(`SELECT (.+) FROM candidates WHERE address = \$1`).
		WithArgs("So111").
		WillReturnRows(rows)

	repo := NewCandidateRepository(db)
	got, err := repo.GetByAddress("So111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "FOO" || got.Source != domain.SourceTag("pumpfun") {
		t.Errorf("unexpected result: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCandidateRepositoryGetByAddress_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM candidates WHERE address = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"address", "symbol", "name", "first_seen_at", "initial_liquidity_usd", "initial_price_usd", "source"}))

	repo := NewCandidateRepository(db)
	_, err = repo.GetByAddress("missing")
	if !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("expected ErrCandidateNotFound, got %v", err)
	}
}

func TestCandidateRepositoryExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("So111").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewCandidateRepository(db)
	exists, err := repo.Exists("So111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected exists=true")
	}
}

func TestCandidateRepositoryCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM candidates`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	repo := NewCandidateRepository(db)
	count, err := repo.Count()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("expected 42, got %d", count)
	}
}
