package out

import (
	"context"

	"sorter/core/domain"
)

// SettingsRepository defines the outbound port for the category vocabulary
// and the presentational settings record.
type SettingsRepository interface {
	EnsureDefaults(ctx context.Context, categories []domain.Category) error
	Categories(ctx context.Context) ([]domain.Category, error)
	GetSettings(ctx context.Context) (*domain.Settings, error)
}
