package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"solmeme-pipeline/internal/models"
)

// ============================================================
// DenylistRepository Tests
// ============================================================

func TestNewDenylistRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewDenylistRepository(db)
	if repo == nil {
		t.Fatal("NewDenylistRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestDenylistRepositoryCreate(t *testing.T) {
	tests := []struct {
		name        string
		entry       *models.DenylistEntry
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			entry: &models.DenylistEntry{
				Address: "btcusdt",
				Reason: "High volatility",
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO denylist`).
					WithArgs("BTCUSDT", "High volatility", sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
			},
			expectError: nil,
		},
		{
			name: "duplicate entry",
			entry: &models.DenylistEntry{
				Address: "ETHUSDT",
				Reason: "Test",
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO denylist`).
					WithArgs("ETHUSDT", "Test", sqlmock.AnyArg()).
					WillReturnError(errors.New("duplicate key value violates unique constraint"))
			},
			expectError: ErrDenylistEntryExists,
		},
		{
			name: "uppercase conversion",
			entry: &models.DenylistEntry{
				Address: "solusdt",
				Reason: "Low liquidity",
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO denylist`).
					WithArgs("SOLUSDT", "Low liquidity", sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
			},
			expectError: nil,
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

			repo := NewDenylistRepository(db)
			err = repo.Create(tt.entry)

			if tt.expectError != nil {
				if err == nil {
					t.Errorf("expected error %v, got nil", tt.expectError)
				} else if tt.expectError == ErrDenylistEntryExists && !errors.Is(err, ErrDenylistEntryExists) {
					t.Errorf("expected ErrDenylistEntryExists, got %v", err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDenylistRepositoryGetAll(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "address", "reason", "created_at"}).
		AddRow(1, "BTCUSDT", "High volatility", now).
		AddRow(2, "ETHUSDT", "Low liquidity", now)
	mock.ExpectQuery(`SELECT .+ FROM denylist ORDER BY created_at DESC`).
		WillReturnRows(rows)

	repo := NewDenylistRepository(db)
	result, err := repo.GetAll()

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 entries, got %d", len(result))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDenylistRepositoryGetByID(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		id          int
		mockSetup   func(mock sqlmock.Sqlmock)
		expected    *models.DenylistEntry
		expectError error
	}{
		{
			name: "success",
			id:   1,
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "address", "reason", "created_at"}).
					AddRow(1, "BTCUSDT", "High volatility", now)
				mock.ExpectQuery(`SELECT .+ FROM denylist WHERE id = \$1`).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expected: &models.DenylistEntry{
				ID:     1,
				Address: "BTCUSDT",
				Reason: "High volatility",
			},
			expectError: nil,
		},
		{
			name: "not found",
			id:   999,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM denylist WHERE id = \$1`).
					WithArgs(999).
					WillReturnError(sql.ErrNoRows)
			},
			expected:    nil,
			expectError: ErrDenylistEntryNotFound,
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

			repo := NewDenylistRepository(db)
			result, err := repo.GetByID(tt.id)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result.Address != tt.expected.Address {
					t.Errorf("expected Address=%s, got %s", tt.expected.Address, result.Address)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDenylistRepositoryGetByAddress(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		address      string
		mockSetup   func(mock sqlmock.Sqlmock)
		expected    *models.DenylistEntry
		expectError error
	}{
		{
			name:   "success - uppercase",
			address: "BTCUSDT",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "address", "reason", "created_at"}).
					AddRow(1, "BTCUSDT", "High volatility", now)
				mock.ExpectQuery(`SELECT .+ FROM denylist WHERE address = \$1`).
					WithArgs("BTCUSDT").
					WillReturnRows(rows)
			},
			expected: &models.DenylistEntry{
				Address: "BTCUSDT",
			},
			expectError: nil,
		},
		{
			name:   "success - lowercase case preserved",
			address: "ethusdt",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "address", "reason", "created_at"}).
					AddRow(2, "ethusdt", "Test", now)
				mock.ExpectQuery(`SELECT .+ FROM denylist WHERE address = \$1`).
					WithArgs("ethusdt").
					WillReturnRows(rows)
			},
			expected: &models.DenylistEntry{
				Address: "ethusdt",
			},
			expectError: nil,
		},
		{
			name:   "not found",
			address: "UNKNOWN",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM denylist WHERE address = \$1`).
					WithArgs("UNKNOWN").
					WillReturnError(sql.ErrNoRows)
			},
			expected:    nil,
			expectError: ErrDenylistEntryNotFound,
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

			repo := NewDenylistRepository(db)
			result, err := repo.GetByAddress(tt.address)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result.Address != tt.expected.Address {
					t.Errorf("expected Address=%s, got %s", tt.expected.Address, result.Address)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDenylistRepositoryDelete(t *testing.T) {
	tests := []struct {
		name        string
		address      string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name:   "success",
			address: "BTCUSDT",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM denylist WHERE address = \$1`).
					WithArgs("BTCUSDT").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name:   "lowercase converted",
			address: "ethusdt",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM denylist WHERE address = \$1`).
					WithArgs("ETHUSDT").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name:   "not found",
			address: "UNKNOWN",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM denylist WHERE address = \$1`).
					WithArgs("UNKNOWN").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrDenylistEntryNotFound,
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

			repo := NewDenylistRepository(db)
			err = repo.Delete(tt.address)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDenylistRepositoryDeleteByID(t *testing.T) {
	tests := []struct {
		name        string
		id          int
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			id:   1,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM denylist WHERE id = \$1`).
					WithArgs(1).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name: "not found",
			id:   999,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM denylist WHERE id = \$1`).
					WithArgs(999).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrDenylistEntryNotFound,
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

			repo := NewDenylistRepository(db)
			err = repo.DeleteByID(tt.id)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDenylistRepositoryExists(t *testing.T) {
	tests := []struct {
		name     string
		address   string
		expected bool
	}{
		{"exists", "So11111111111111111111111111111111111111112", true},
		{"exists - different address", "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", true},
		{"not exists", "UnknownMintAddress1111111111111111111111111", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			rows := sqlmock.NewRows([]string{"exists"}).AddRow(tt.expected)
			mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM denylist WHERE address = \$1\)`).
				WithArgs(sqlmock.AnyArg()).
				WillReturnRows(rows)

			repo := NewDenylistRepository(db)
			exists, err := repo.Exists(tt.address)

			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if exists != tt.expected {
				t.Errorf("expected exists=%v, got %v", tt.expected, exists)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDenylistRepositoryUpdateReason(t *testing.T) {
	tests := []struct {
		name        string
		address      string
		reason      string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name:   "success",
			address: "BTCUSDT",
			reason: "Updated reason",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE denylist SET reason = \$1 WHERE address = \$2`).
					WithArgs("Updated reason", "BTCUSDT").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name:   "not found",
			address: "UNKNOWN",
			reason: "Test",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE denylist SET reason = \$1 WHERE address = \$2`).
					WithArgs("Test", "UNKNOWN").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrDenylistEntryNotFound,
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

			repo := NewDenylistRepository(db)
			err = repo.UpdateReason(tt.address, tt.reason)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDenylistRepositoryCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(10)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM denylist`).
		WillReturnRows(rows)

	repo := NewDenylistRepository(db)
	count, err := repo.Count()

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if count != 10 {
		t.Errorf("expected count=10, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDenylistRepositoryDeleteAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM denylist`).
		WillReturnResult(sqlmock.NewResult(0, 10))

	repo := NewDenylistRepository(db)
	err = repo.DeleteAll()

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDenylistRepositorySearch(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "address", "reason", "created_at"}).
		AddRow(1, "BTCUSDT", "High volatility", now)
	mock.ExpectQuery(`SELECT .+ FROM denylist WHERE address LIKE \$1`).
		WithArgs("%BTC%").
		WillReturnRows(rows)

	repo := NewDenylistRepository(db)
	result, err := repo.Search("BTC")

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("expected 1 result, got %d", len(result))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestIsDenylistUniqueViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"duplicate key error", errors.New("duplicate key value violates unique constraint"), true},
		{"postgres error code 23505", errors.New("ERROR: 23505 duplicate key"), true},
		{"other error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isDenylistUniqueViolation(tt.err)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
