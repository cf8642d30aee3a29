package out

import (
	"context"

	"sorter/core/domain"
)

// ContactRepository defines the outbound port for the contact store.
type ContactRepository interface {
	// Upsert inserts contacts or refreshes their counts, keeping the
	// category, notes and custom name of rows that already exist.
	Upsert(ctx context.Context, contacts []domain.ExtractedContact) (int, error)

	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	List(ctx context.Context, filter domain.ContactFilter) ([]*domain.Contact, error)

	// UpdateCategory writes one assignment. A nil category leaves the
	// category untouched and records only the reason.
	UpdateCategory(ctx context.Context, assignment domain.CategoryAssignment) error

	// CountByCategory returns the number of contacts per category id.
	CountByCategory(ctx context.Context) (map[domain.CategoryID]int, error)
}

// AssignmentWriter is the narrow write side used by the categorize engine.
type AssignmentWriter interface {
	UpdateCategory(ctx context.Context, assignment domain.CategoryAssignment) error
}
