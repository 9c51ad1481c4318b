package repository

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"solmeme-pipeline/internal/domain"
)

// ErrDecisionNotFound is returned when no decision row matches the query.
var ErrDecisionNotFound = errors.New("decision not found")

// DecisionRepository persists Scoring & Decision Engine output for
// dashboard history and post-hoc strategy review, following the same
// single-table CRUD shape as the teacher's OrderRepository
// (internal/repository/order_repository.go).
type DecisionRepository struct {
	db *sql.DB
}

// NewDecisionRepository returns a repository bound to db.
func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// Create records a Decision, assigning it an ID.
func (r *DecisionRepository) Create(d *domain.Decision) (int64, error) {
	reasons, err := json.Marshal(d.Reasons)
	if err != nil {
		return 0, err
	}
	subscores, err := json.Marshal(d.Subscores)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO decisions (address, recommendation, score, confidence, reasons, subscores,
			suggested_position_usd, suggested_stop_loss_pct, suggested_take_profit_pct,
			timeframe_hint, reference_price_usd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var id int64
	err = r.db.QueryRow(
		query,
		canonicalAddress(d.Address),
		string(d.Recommendation),
		d.Score,
		d.Confidence,
		reasons,
		subscores,
		d.SuggestedPositionUsd.String(),
		d.SuggestedStopLossPct,
		d.SuggestedTakeProfitPct,
		d.TimeframeHint,
		d.ReferencePriceUsd.String(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetLatestByAddress returns the most recently recorded decision for address.
func (r *DecisionRepository) GetLatestByAddress(address string) (*domain.Decision, error) {
	query := `
		SELECT address, recommendation, score, confidence, reasons, subscores,
			suggested_position_usd, suggested_stop_loss_pct, suggested_take_profit_pct,
			timeframe_hint, reference_price_usd
		FROM decisions
		WHERE address = $1
		ORDER BY id DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRow(query, canonicalAddress(address)))
}

// GetRecent returns the most recent limit decisions across all addresses.
func (r *DecisionRepository) GetRecent(limit int) ([]*domain.Decision, error) {
	query := `
		SELECT address, recommendation, score, confidence, reasons, subscores,
			suggested_position_usd, suggested_stop_loss_pct, suggested_take_profit_pct,
			timeframe_hint, reference_price_usd
		FROM decisions
		ORDER BY id DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Decision
	for rows.Next() {
		d, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *DecisionRepository) scanOne(row rowScanner) (*domain.Decision, error) {
	d, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDecisionNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DecisionRepository) scanRow(row rowScanner) (*domain.Decision, error) {
	d := &domain.Decision{}
	var recommendation string
	var reasonsRaw, subscoresRaw []byte
	var suggestedPosition, referencePrice string

	err := row.Scan(
		&d.Address,
		&recommendation,
		&d.Score,
		&d.Confidence,
		&reasonsRaw,
		&subscoresRaw,
		&suggestedPosition,
		&d.SuggestedStopLossPct,
		&d.SuggestedTakeProfitPct,
		&d.TimeframeHint,
		&referencePrice,
	)
	if err != nil {
		return nil, err
	}

	d.Recommendation = domain.Recommendation(recommendation)

	if err := json.Unmarshal(reasonsRaw, &d.Reasons); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(subscoresRaw, &d.Subscores); err != nil {
		return nil, err
	}

	d.SuggestedPositionUsd, err = decimal.NewFromString(suggestedPosition)
	if err != nil {
		return nil, err
	}
	d.ReferencePriceUsd, err = decimal.NewFromString(referencePrice)
	if err != nil {
		return nil, err
	}

	return d, nil
}
