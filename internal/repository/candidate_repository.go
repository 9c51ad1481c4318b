package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"solmeme-pipeline/internal/domain"
)

// Sentinel errors for the candidate table, same shape as the teacher's
// blacklist repository.
var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrCandidateExists   = errors.New("candidate already recorded")
)

// CandidateRepository persists TokenCandidate records for audit/replay,
// generalizing the teacher's BlacklistRepository (internal/repository/
// blacklist_repository.go) from a permanent ban list keyed by symbol to
// an append-mostly history keyed by address.
type CandidateRepository struct {
	db *sql.DB
}

// NewCandidateRepository returns a repository bound to db.
func NewCandidateRepository(db *sql.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Create records a newly admitted candidate.
func (r *CandidateRepository) Create(c *domain.TokenCandidate) error {
	query := `
		INSERT INTO candidates (address, symbol, name, first_seen_at, initial_liquidity_usd, initial_price_usd, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if c.FirstSeenAt.IsZero() {
		c.FirstSeenAt = time.Now()
	}

	_, err := r.db.Exec(query,
		canonicalAddress(c.Address),
		c.Symbol,
		c.Name,
		c.FirstSeenAt,
		c.InitialLiquidityUsd,
		nullableFloat(c.InitialPriceUsd),
		string(c.Source),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCandidateExists
		}
		return err
	}
	return nil
}

// GetByAddress returns the recorded candidate for address.
func (r *CandidateRepository) GetByAddress(address string) (*domain.TokenCandidate, error) {
	query := `
		SELECT address, symbol, name, first_seen_at, initial_liquidity_usd, initial_price_usd, source
		FROM candidates
		WHERE address = $1`

	c := &domain.TokenCandidate{}
	var source string
	var price sql.NullFloat64
	err := r.db.QueryRow(query, canonicalAddress(address)).Scan(
		&c.Address, &c.Symbol, &c.Name, &c.FirstSeenAt, &c.InitialLiquidityUsd, &price, &source,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}
	c.Source = domain.SourceTag(source)
	if price.Valid {
		c.InitialPriceUsd = &price.Float64
	}
	return c, nil
}

// ListSince returns every candidate first seen at or after since, for
// dashboard history views and replay seeding.
func (r *CandidateRepository) ListSince(since time.Time) ([]*domain.TokenCandidate, error) {
	query := `
		SELECT address, symbol, name, first_seen_at, initial_liquidity_usd, initial_price_usd, source
		FROM candidates
		WHERE first_seen_at >= $1
		ORDER BY first_seen_at DESC`

	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.TokenCandidate
	for rows.Next() {
		c := &domain.TokenCandidate{}
		var source string
		var price sql.NullFloat64
		if err := rows.Scan(&c.Address, &c.Symbol, &c.Name, &c.FirstSeenAt, &c.InitialLiquidityUsd, &price, &source); err != nil {
			return nil, err
		}
		c.Source = domain.SourceTag(source)
		if price.Valid {
			c.InitialPriceUsd = &price.Float64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Exists reports whether address has already been recorded.
func (r *CandidateRepository) Exists(address string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM candidates WHERE address = $1)`
	var exists bool
	err := r.db.QueryRow(query, canonicalAddress(address)).Scan(&exists)
	return exists, err
}

// Count returns the total number of recorded candidates.
func (r *CandidateRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM candidates`).Scan(&count)
	return count, err
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func canonicalAddress(addr string) string {
	return strings.TrimSpace(addr)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "23505")
}
