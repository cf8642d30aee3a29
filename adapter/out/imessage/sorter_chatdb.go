// Package imessage reads the local Messages and AddressBook SQLite stores.
package imessage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"sorter/core/domain"
	"sorter/infra/database"
	"sorter/pkg/apperr"
	"sorter/pkg/normalize"
)

// DefaultChatDBPath returns the Messages database of the current user.
func DefaultChatDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Messages", "chat.db")
}

// ChatDB implements out.MessageStore over a read-only chat.db.
type ChatDB struct {
	db   *sqlx.DB
	path string
	log  zerolog.Logger
}

// OpenChatDB opens chat.db read-only and checks the required tables exist.
// Any failure is fatal for the run and reported as CodeStoreUnavailable.
func OpenChatDB(path string, log zerolog.Logger) (*ChatDB, error) {
	db, err := database.OpenSQLiteReadOnly(path)
	if err != nil {
		return nil, apperr.StoreUnavailable(path, err)
	}

	var n int
	err = db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('handle', 'message')`)
	if err != nil {
		_ = db.Close()
		return nil, apperr.StoreUnavailable(path, err)
	}
	if n != 2 {
		_ = db.Close()
		return nil, apperr.StoreUnavailable(path, nil).WithDetail("reason", "missing handle or message table")
	}

	return &ChatDB{
		db:   db,
		path: path,
		log:  log.With().Str("component", "chatdb").Logger(),
	}, nil
}

// Close releases the database handle.
func (c *ChatDB) Close() error {
	return c.db.Close()
}

// handleRow is the typed aggregate row for one handle.
type handleRow struct {
	HandleID   int64          `db:"handle_id"`
	Identifier sql.NullString `db:"identifier"`
	Total      int64          `db:"total_messages"`
	Sent       sql.NullInt64  `db:"sent_messages"`
	Received   sql.NullInt64  `db:"received_messages"`
	LastDate   sql.NullInt64  `db:"last_message_date"`
}

func (r *handleRow) toDomain() (domain.Handle, error) {
	id := domain.ContactIDForHandle(r.HandleID)
	if !r.Identifier.Valid || r.Identifier.String == "" {
		return domain.Handle{}, apperr.InvalidRecord(id, "empty identifier")
	}
	if r.Total < 0 || r.Sent.Int64 < 0 || r.Received.Int64 < 0 {
		return domain.Handle{}, apperr.InvalidRecord(id, "negative message count")
	}

	h := domain.Handle{
		RowID:            r.HandleID,
		Identifier:       r.Identifier.String,
		TotalMessages:    int(r.Total),
		SentMessages:     int(r.Sent.Int64),
		ReceivedMessages: int(r.Received.Int64),
	}
	if t, ok := normalize.FromNullTimestamp(r.LastDate); ok {
		h.LastActivityAt = &t
	}
	return h, nil
}

const handlesQuery = `
	SELECT
		h.ROWID AS handle_id,
		h.id AS identifier,
		COUNT(m.ROWID) AS total_messages,
		SUM(CASE WHEN m.is_from_me = 1 THEN 1 ELSE 0 END) AS sent_messages,
		SUM(CASE WHEN m.is_from_me = 0 THEN 1 ELSE 0 END) AS received_messages,
		MAX(m.date) AS last_message_date
	FROM handle h
	LEFT JOIN message m ON m.handle_id = h.ROWID
	GROUP BY h.ROWID
	ORDER BY total_messages DESC, h.ROWID ASC
`

// Handles returns every handle with its counters, busiest first.
// Rows that fail validation are logged and left out.
func (c *ChatDB) Handles(ctx context.Context) ([]domain.Handle, error) {
	var rows []handleRow
	if err := c.db.SelectContext(ctx, &rows, handlesQuery); err != nil {
		return nil, apperr.StoreUnavailable(c.path, err)
	}

	handles := make([]domain.Handle, 0, len(rows))
	for i := range rows {
		h, err := rows[i].toDomain()
		if err != nil {
			c.log.Warn().Err(err).Int64("handle_id", rows[i].HandleID).Msg("skipping invalid handle row")
			continue
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// messageRow is the typed row for one message.
type messageRow struct {
	Text     sql.NullString `db:"text"`
	Date     sql.NullInt64  `db:"date"`
	IsFromMe sql.NullInt64  `db:"is_from_me"`
	HandleID int64          `db:"handle_id"`
}

func (r *messageRow) toDomain() domain.RawMessageRecord {
	return domain.RawMessageRecord{
		Text:      r.Text.String,
		Timestamp: r.Date.Int64,
		IsFromMe:  r.IsFromMe.Int64 == 1,
		HandleID:  r.HandleID,
	}
}

const messagesQuery = `
	SELECT m.text, m.date, m.is_from_me, m.handle_id
	FROM message m
	JOIN handle h ON m.handle_id = h.ROWID
	WHERE h.id = ?
		AND m.text IS NOT NULL
		AND m.text != ''
	ORDER BY m.date ASC, m.ROWID ASC
`

// MessagesFor returns the text history with identifier, oldest first.
func (c *ChatDB) MessagesFor(ctx context.Context, identifier string) ([]domain.RawMessageRecord, error) {
	var rows []messageRow
	if err := c.db.SelectContext(ctx, &rows, messagesQuery, identifier); err != nil {
		return nil, err
	}

	messages := make([]domain.RawMessageRecord, len(rows))
	for i := range rows {
		messages[i] = rows[i].toDomain()
	}
	return messages, nil
}
