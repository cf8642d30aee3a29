package out

import (
	"context"

	"sorter/core/domain"
)

// ContactFile defines the outbound port for the interchange file written by
// extract and read by upload.
type ContactFile interface {
	Write(ctx context.Context, contacts []domain.ExtractedContact) error
	Read(ctx context.Context) ([]domain.ExtractedContact, error)
}
