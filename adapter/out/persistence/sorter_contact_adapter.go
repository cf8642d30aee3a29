package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"sorter/core/domain"
	"sorter/pkg/apperr"
)

// ContactAdapter implements out.ContactRepository using PostgreSQL.
type ContactAdapter struct {
	db *sqlx.DB
}

// NewContactAdapter creates a new ContactAdapter.
func NewContactAdapter(db *sqlx.DB) *ContactAdapter {
	return &ContactAdapter{db: db}
}

// contactRow represents the database row for contacts.
type contactRow struct {
	ID              string         `db:"id"`
	Identifier      string         `db:"identifier"`
	DisplayName     sql.NullString `db:"display_name"`
	MessageCount    int            `db:"message_count"`
	SentCount       int            `db:"sent_count"`
	ReceivedCount   int            `db:"received_count"`
	LastMessageDate sql.NullTime   `db:"last_message_date"`
	IsSavedContact  bool           `db:"is_saved_contact"`
	CategoryID      string         `db:"category_id"`
	CategoryReason  sql.NullString `db:"category_reason"`
	Notes           string         `db:"notes"`
	CustomName      sql.NullString `db:"custom_name"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r *contactRow) toDomain() *domain.Contact {
	c := &domain.Contact{
		ExtractedContact: domain.ExtractedContact{
			ID:             r.ID,
			Identifier:     r.Identifier,
			MessageCount:   r.SentCount + r.ReceivedCount,
			SentCount:      r.SentCount,
			ReceivedCount:  r.ReceivedCount,
			IsSavedContact: r.IsSavedContact,
		},
		CategoryID:     domain.CategoryID(r.CategoryID),
		CategoryReason: r.CategoryReason.String,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.DisplayName.Valid {
		c.DisplayName = &r.DisplayName.String
	}
	if r.LastMessageDate.Valid {
		t := r.LastMessageDate.Time
		c.LastMessageDate = &t
	}
	if r.CustomName.Valid {
		c.CustomName = &r.CustomName.String
	}
	return c
}

const contactColumns = `
	id, identifier, display_name, message_count, sent_count, received_count,
	last_message_date, is_saved_contact, category_id, category_reason,
	notes, custom_name, created_at, updated_at
`

const upsertQuery = `
	INSERT INTO contacts (
		id, identifier, display_name, message_count, sent_count,
		received_count, last_message_date, is_saved_contact
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		identifier = EXCLUDED.identifier,
		display_name = EXCLUDED.display_name,
		message_count = EXCLUDED.message_count,
		sent_count = EXCLUDED.sent_count,
		received_count = EXCLUDED.received_count,
		last_message_date = EXCLUDED.last_message_date,
		is_saved_contact = EXCLUDED.is_saved_contact,
		updated_at = NOW()
`

// Upsert writes a batch in one transaction. Counts are refreshed from the
// extraction while category, notes and custom name are left as they are.
func (a *ContactAdapter) Upsert(ctx context.Context, contacts []domain.ExtractedContact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperr.DatabaseError("begin upsert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, upsertQuery)
	if err != nil {
		return 0, apperr.DatabaseError("prepare upsert", err)
	}
	defer stmt.Close()

	for i := range contacts {
		c := &contacts[i]
		if _, err := stmt.ExecContext(ctx,
			c.ID,
			c.Identifier,
			nullString(c.DisplayName),
			c.SentCount+c.ReceivedCount,
			c.SentCount,
			c.ReceivedCount,
			nullTime(c.LastMessageDate),
			c.IsSavedContact,
		); err != nil {
			return 0, apperr.DatabaseError(fmt.Sprintf("upsert %s", c.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.DatabaseError("commit upsert", err)
	}
	return len(contacts), nil
}

// GetByID gets a contact by ID.
func (a *ContactAdapter) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	var row contactRow
	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("contact " + id)
		}
		return nil, apperr.DatabaseError("get contact", err)
	}
	return row.toDomain(), nil
}

// List lists contacts ordered by id.
func (a *ContactAdapter) List(ctx context.Context, filter domain.ContactFilter) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE 1=1`
	var args []any
	argIdx := 1

	if filter.Category != nil {
		query += fmt.Sprintf(` AND category_id = $%d`, argIdx)
		args = append(args, string(*filter.Category))
		argIdx++
	}
	if filter.ExcludeCategory != nil {
		query += fmt.Sprintf(` AND category_id <> $%d`, argIdx)
		args = append(args, string(*filter.ExcludeCategory))
	}
	query += ` ORDER BY id`

	var rows []contactRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperr.DatabaseError("list contacts", err)
	}

	contacts := make([]*domain.Contact, len(rows))
	for i := range rows {
		contacts[i] = rows[i].toDomain()
	}
	return contacts, nil
}

// UpdateCategory writes one assignment.
func (a *ContactAdapter) UpdateCategory(ctx context.Context, assignment domain.CategoryAssignment) error {
	var (
		result sql.Result
		err    error
	)
	if assignment.Category != nil {
		result, err = a.db.ExecContext(ctx, `
			UPDATE contacts SET category_id = $1, category_reason = $2, updated_at = NOW()
			WHERE id = $3
		`, string(*assignment.Category), assignment.Reason, assignment.ContactID)
	} else {
		result, err = a.db.ExecContext(ctx, `
			UPDATE contacts SET category_reason = $1, updated_at = NOW()
			WHERE id = $2
		`, assignment.Reason, assignment.ContactID)
	}
	if err != nil {
		return apperr.DatabaseError("update category", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("contact " + assignment.ContactID)
	}
	return nil
}

// CountByCategory returns the number of contacts per category id.
func (a *ContactAdapter) CountByCategory(ctx context.Context) (map[domain.CategoryID]int, error) {
	var rows []struct {
		CategoryID string `db:"category_id"`
		Count      int    `db:"count"`
	}
	query := `SELECT category_id, COUNT(*) AS count FROM contacts GROUP BY category_id`
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperr.DatabaseError("count by category", err)
	}

	counts := make(map[domain.CategoryID]int, len(rows))
	for _, r := range rows {
		counts[domain.CategoryID(r.CategoryID)] = r.Count
	}
	return counts, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
