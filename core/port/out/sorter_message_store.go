package out

import (
	"context"

	"sorter/core/domain"
)

// MessageHistory reads the messages exchanged with one identifier.
type MessageHistory interface {
	// MessagesFor returns the text messages exchanged with identifier,
	// oldest first. Empty and null texts are omitted.
	MessagesFor(ctx context.Context, identifier string) ([]domain.RawMessageRecord, error)
}

// MessageStore defines the outbound port for the read-only message history.
type MessageStore interface {
	MessageHistory

	// Handles returns every handle with its aggregated counters, busiest first.
	Handles(ctx context.Context) ([]domain.Handle, error)

	Close() error
}

// AddressBook defines the outbound port for saved-contact lookups.
type AddressBook interface {
	// SavedContacts returns name info keyed by the raw and normalized forms
	// of every phone number and email address on file.
	SavedContacts(ctx context.Context) (map[string]domain.SavedContactInfo, error)
}
