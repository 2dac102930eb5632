package repository

import (
	"context"
	"fmt"

	"accrue/database"
	"accrue/models"
)

// RateChangeRepository implements the RateChangeRepository interface
type RateChangeRepository struct {
	q queryable
}

// NewRateChangeRepository creates a new rate change repository
func NewRateChangeRepository(db *database.DB) *RateChangeRepository {
	return &RateChangeRepository{q: db.Pool}
}

// newRateChangeRepositoryWithTx creates a new rate change repository with a transaction
func newRateChangeRepositoryWithTx(tx queryable) *RateChangeRepository {
	return &RateChangeRepository{q: tx}
}

// Record creates a new rate change entry
func (r *RateChangeRepository) Record(ctx context.Context, change *models.RateChange) error {
	query := `
		INSERT INTO rate_changes (old_rate, new_rate, changed_by)
		VALUES ($1::numeric, $2::numeric, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		change.OldRate.String(),
		change.NewRate.String(),
		change.ChangedBy,
	).Scan(&change.ID, &change.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record rate change: %w", err)
	}

	return nil
}

// List returns rate changes, newest first
func (r *RateChangeRepository) List(ctx context.Context, limit int) ([]*models.RateChange, error) {
	query := `
		SELECT id, old_rate::text, new_rate::text, changed_by, created_at
		FROM rate_changes
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rate changes: %w", err)
	}
	defer rows.Close()

	var changes []*models.RateChange
	for rows.Next() {
		var change models.RateChange
		var oldRate, newRate string

		err := rows.Scan(&change.ID, &oldRate, &newRate, &change.ChangedBy, &change.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate change: %w", err)
		}

		if change.OldRate, err = parseBigInt(oldRate); err != nil {
			return nil, fmt.Errorf("failed to parse old_rate: %w", err)
		}
		if change.NewRate, err = parseBigInt(newRate); err != nil {
			return nil, fmt.Errorf("failed to parse new_rate: %w", err)
		}

		changes = append(changes, &change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rate changes: %w", err)
	}

	return changes, nil
}
