package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"solmeme-pipeline/internal/models"
)

// Ошибки репозитория deny-листа адресов
var (
	ErrDenylistEntryNotFound = errors.New("denylist entry not found")
	ErrDenylistEntryExists   = errors.New("address already in denylist")
)

// DenylistRepository - работа с таблицей denylist. Addresses are Solana
// base58 token mints and are case-sensitive; unlike the exchange symbol
// table this replaces, no normalization is applied beyond TrimSpace.
type DenylistRepository struct {
	db *sql.DB
}

// NewDenylistRepository создает новый экземпляр репозитория
func NewDenylistRepository(db *sql.DB) *DenylistRepository {
	return &DenylistRepository{db: db}
}

// Create добавляет адрес в deny-лист
func (r *DenylistRepository) Create(entry *models.DenylistEntry) error {
	query := `
		INSERT INTO denylist (address, reason, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	entry.Address = strings.TrimSpace(entry.Address)
	entry.CreatedAt = time.Now()

	err := r.db.QueryRow(
		query,
		entry.Address,
		entry.Reason,
		entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		if isDenylistUniqueViolation(err) {
			return ErrDenylistEntryExists
		}
		return err
	}

	return nil
}

// GetAll возвращает весь deny-лист
func (r *DenylistRepository) GetAll() ([]*models.DenylistEntry, error) {
	query := `
		SELECT id, address, reason, created_at
		FROM denylist
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.DenylistEntry
	for rows.Next() {
		entry := &models.DenylistEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Address,
			&entry.Reason,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// GetByID возвращает запись по ID
func (r *DenylistRepository) GetByID(id int) (*models.DenylistEntry, error) {
	query := `
		SELECT id, address, reason, created_at
		FROM denylist
		WHERE id = $1`

	entry := &models.DenylistEntry{}
	err := r.db.QueryRow(query, id).Scan(
		&entry.ID,
		&entry.Address,
		&entry.Reason,
		&entry.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDenylistEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// GetByAddress возвращает запись по адресу
func (r *DenylistRepository) GetByAddress(address string) (*models.DenylistEntry, error) {
	query := `
		SELECT id, address, reason, created_at
		FROM denylist
		WHERE address = $1`

	entry := &models.DenylistEntry{}
	err := r.db.QueryRow(query, address).Scan(
		&entry.ID,
		&entry.Address,
		&entry.Reason,
		&entry.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDenylistEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// Delete удаляет адрес из deny-листа
func (r *DenylistRepository) Delete(address string) error {
	query := `DELETE FROM denylist WHERE address = $1`

	result, err := r.db.Exec(query, address)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrDenylistEntryNotFound
	}

	return nil
}

// DeleteByID удаляет запись по ID
func (r *DenylistRepository) DeleteByID(id int) error {
	query := `DELETE FROM denylist WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrDenylistEntryNotFound
	}

	return nil
}

// Exists проверяет наличие адреса в deny-листе
func (r *DenylistRepository) Exists(address string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM denylist WHERE address = $1)`

	var exists bool
	err := r.db.QueryRow(query, address).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// UpdateReason обновляет причину добавления в deny-лист
func (r *DenylistRepository) UpdateReason(address string, reason string) error {
	query := `
		UPDATE denylist
		SET reason = $1
		WHERE address = $2`

	result, err := r.db.Exec(query, reason, address)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrDenylistEntryNotFound
	}

	return nil
}

// Count возвращает количество записей в deny-листе
func (r *DenylistRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM denylist`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteAll очищает весь deny-лист
func (r *DenylistRepository) DeleteAll() error {
	query := `DELETE FROM denylist`
	_, err := r.db.Exec(query)
	return err
}

// Search ищет записи по части адреса
func (r *DenylistRepository) Search(query string) ([]*models.DenylistEntry, error) {
	sqlQuery := `
		SELECT id, address, reason, created_at
		FROM denylist
		WHERE address LIKE $1
		ORDER BY address`

	searchPattern := "%" + query + "%"
	rows, err := r.db.Query(sqlQuery, searchPattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.DenylistEntry
	for rows.Next() {
		entry := &models.DenylistEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Address,
			&entry.Reason,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// isDenylistUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint
func isDenylistUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}
