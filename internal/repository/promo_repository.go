package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/baiserke/promobot/internal/model"
)

var (
	// ErrDuplicateAssignment means the same username is written into more
	// than one row. The ledger is corrupt; callers must not pick one.
	ErrDuplicateAssignment = errors.New("username assigned to multiple codes")

	// ErrCodeTaken means the row stopped being free between read and write.
	ErrCodeTaken = errors.New("code already assigned")
)

// PromoRepository handles promo-code ledger operations.
type PromoRepository struct {
	db *sqlx.DB
}

// NewPromoRepository creates a new promo-code repository.
func NewPromoRepository(db *sqlx.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

// FreeCodes returns every unassigned row. Order is whatever the store
// yields; callers must not rely on it.
func (r *PromoRepository) FreeCodes(ctx context.Context) ([]model.FreeCode, error) {
	query := `
		SELECT id, code
		FROM promo_codes
		WHERE assigned_to IS NULL
	`

	var free []model.FreeCode
	if err := r.db.SelectContext(ctx, &free, query); err != nil {
		return nil, fmt.Errorf("failed to list free codes: %w", err)
	}

	return free, nil
}

// FindAssignment returns the code already assigned to username, if any.
// Matching is case-insensitive. More than one matching row is reported as
// ErrDuplicateAssignment rather than resolved silently.
func (r *PromoRepository) FindAssignment(ctx context.Context, username string) (string, bool, error) {
	query := `
		SELECT code
		FROM promo_codes
		WHERE lower(assigned_to) = lower($1)
	`

	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, username); err != nil {
		return "", false, fmt.Errorf("failed to look up assignment: %w", err)
	}

	switch len(codes) {
	case 0:
		return "", false, nil
	case 1:
		return codes[0], true, nil
	default:
		return "", false, fmt.Errorf("%w: %q holds %d codes", ErrDuplicateAssignment, username, len(codes))
	}
}

// Assign writes username into the row's assigned_to field. The update is
// guarded so an already-assigned row is never overwritten.
func (r *PromoRepository) Assign(ctx context.Context, id int64, username string) error {
	query := `
		UPDATE promo_codes
		SET assigned_to = $1, assigned_at = $2
		WHERE id = $3 AND assigned_to IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, username, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to assign code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCodeTaken
	}

	return nil
}

// AllCodes returns the whole ledger in insertion order, for export.
func (r *PromoRepository) AllCodes(ctx context.Context) ([]model.PromoCode, error) {
	query := `
		SELECT id, code, discount, expires_at, assigned_to, assigned_at, created_at
		FROM promo_codes
		ORDER BY id ASC
	`

	var rows []model.PromoCode
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	return rows, nil
}
