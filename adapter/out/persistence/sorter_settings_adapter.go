package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sorter/core/domain"
	"sorter/pkg/apperr"
)

// SettingsAdapter implements out.SettingsRepository using PostgreSQL.
type SettingsAdapter struct {
	db *sqlx.DB
}

// NewSettingsAdapter creates a new SettingsAdapter.
func NewSettingsAdapter(db *sqlx.DB) *SettingsAdapter {
	return &SettingsAdapter{db: db}
}

// EnsureDefaults seeds missing categories and the settings row. Existing
// rows are never overwritten so UI edits survive.
func (a *SettingsAdapter) EnsureDefaults(ctx context.Context, categories []domain.Category) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.DatabaseError("begin seed", err)
	}
	defer tx.Rollback()

	order := make([]string, len(categories))
	for i, c := range categories {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, color, sort_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, string(c.ID), c.Name, c.Color, c.Order); err != nil {
			return apperr.DatabaseError("seed category", err)
		}
		order[i] = string(c.ID)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (id, category_order) VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, pq.Array(order)); err != nil {
		return apperr.DatabaseError("seed settings", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.DatabaseError("commit seed", err)
	}
	return nil
}

// Categories returns the stored vocabulary by sort order.
func (a *SettingsAdapter) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	query := `SELECT id, name, color, sort_order FROM categories ORDER BY sort_order, id`
	if err := a.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, apperr.DatabaseError("list categories", err)
	}
	return categories, nil
}

// GetSettings returns the settings record, or an empty one when none is stored.
func (a *SettingsAdapter) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var order pq.StringArray
	err := a.db.QueryRowxContext(ctx, `SELECT category_order FROM settings WHERE id = 1`).Scan(&order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.Settings{}, nil
		}
		return nil, apperr.DatabaseError("get settings", err)
	}

	settings := &domain.Settings{CategoryOrder: make([]domain.CategoryID, len(order))}
	for i, id := range order {
		settings.CategoryOrder[i] = domain.CategoryID(id)
	}
	return settings, nil
}
