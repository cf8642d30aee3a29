package domain

import (
	"fmt"
	"time"
)

// ExtractedContact is the cleaned view of one handle, as produced by
// extraction and exchanged between the extract and upload steps.
type ExtractedContact struct {
	ID              string     `json:"id"`
	Identifier      string     `json:"identifier"`
	DisplayName     *string    `json:"displayName"`
	MessageCount    int        `json:"messageCount"`
	SentCount       int        `json:"sentCount"`
	ReceivedCount   int        `json:"receivedCount"`
	LastMessageDate *time.Time `json:"lastMessageDate"`
	IsSavedContact  bool       `json:"isSavedContact"`
}

// ContactIDForHandle derives the stable contact id from the handle row id.
// Re-extraction against the same message store yields the same id.
func ContactIDForHandle(rowID int64) string {
	return fmt.Sprintf("contact-%d", rowID)
}

// Contact is the persisted contact record, including the fields the UI edits.
type Contact struct {
	ExtractedContact

	CategoryID     CategoryID `json:"categoryId"`
	CategoryReason string     `json:"categoryReason,omitempty"`
	Notes          string     `json:"notes"`
	CustomName     *string    `json:"customName"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewContact wraps an extracted contact as a fresh, uncategorized record.
func NewContact(e ExtractedContact) *Contact {
	return &Contact{
		ExtractedContact: e,
		CategoryID:       CategoryUncategorized,
	}
}

// Name returns the best label for display: custom name, display name, identifier.
func (c *Contact) Name() string {
	if c.CustomName != nil && *c.CustomName != "" {
		return *c.CustomName
	}
	if c.DisplayName != nil && *c.DisplayName != "" {
		return *c.DisplayName
	}
	return c.Identifier
}

// HasName reports whether a human-provided or address-book name is present.
func (c *Contact) HasName() bool {
	return (c.CustomName != nil && *c.CustomName != "") ||
		(c.DisplayName != nil && *c.DisplayName != "")
}

// ContactFilter narrows contact store listings.
type ContactFilter struct {
	Category        *CategoryID
	ExcludeCategory *CategoryID
}
