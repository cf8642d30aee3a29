package domain

// AssignmentSource names the policy that produced an assignment.
type AssignmentSource string

const (
	SourceEra       AssignmentSource = "era"
	SourceTier      AssignmentSource = "tier"
	SourceDuplicate AssignmentSource = "duplicate"
)

// CategoryAssignment is the engine's decision for one contact. A nil
// Category is a final "insufficient signal" outcome; a contact without any
// assignment has simply not been classified yet.
type CategoryAssignment struct {
	ContactID string           `json:"contactId"`
	Category  *CategoryID      `json:"category"`
	Reason    string           `json:"reason"`
	Source    AssignmentSource `json:"source"`
}

// Assigned reports whether a category was chosen.
func (a CategoryAssignment) Assigned() bool {
	return a.Category != nil
}

// CategoryPtr returns a pointer to id for use in assignments.
func CategoryPtr(id CategoryID) *CategoryID {
	return &id
}

// DuplicateGroup maps a normalized identifier to the contacts believed to be
// the same person. Only exists while duplicates are being resolved.
type DuplicateGroup struct {
	Key      string
	Survivor *Contact
	Archived []*Contact
}
