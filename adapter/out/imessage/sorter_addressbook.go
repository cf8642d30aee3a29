package imessage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"sorter/core/domain"
	"sorter/infra/database"
	"sorter/pkg/apperr"
	"sorter/pkg/normalize"
)

const addressBookFile = "AddressBook-v22.abcddb"

// DefaultAddressBookDir returns the AddressBook directory of the current user.
func DefaultAddressBookDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Application Support", "AddressBook")
}

// AddressBook implements out.AddressBook over every AddressBook database
// found under a directory.
type AddressBook struct {
	dir string
	log zerolog.Logger
}

// NewAddressBook creates an AddressBook rooted at dir.
func NewAddressBook(dir string, log zerolog.Logger) *AddressBook {
	return &AddressBook{
		dir: dir,
		log: log.With().Str("component", "addressbook").Logger(),
	}
}

// Sources lists the databases to read: each Sources/* account in name order,
// then the root database.
func (a *AddressBook) Sources() []string {
	matches, _ := filepath.Glob(filepath.Join(a.dir, "Sources", "*", addressBookFile))
	sort.Strings(matches)

	root := filepath.Join(a.dir, addressBookFile)
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		matches = append(matches, root)
	}
	return matches
}

type nameRow struct {
	Value     string         `db:"value"`
	FirstName sql.NullString `db:"first_name"`
	LastName  sql.NullString `db:"last_name"`
}

func (r *nameRow) toDomain() domain.SavedContactInfo {
	return domain.SavedContactInfo{
		FirstName: r.FirstName.String,
		LastName:  r.LastName.String,
	}
}

const phonesQuery = `
	SELECT p.ZFULLNUMBER AS value, r.ZFIRSTNAME AS first_name, r.ZLASTNAME AS last_name
	FROM ZABCDPHONENUMBER p
	JOIN ZABCDRECORD r ON p.ZOWNER = r.Z_PK
	WHERE p.ZFULLNUMBER IS NOT NULL
	ORDER BY p.Z_PK
`

const emailsQuery = `
	SELECT e.ZADDRESSNORMALIZED AS value, r.ZFIRSTNAME AS first_name, r.ZLASTNAME AS last_name
	FROM ZABCDEMAILADDRESS e
	JOIN ZABCDRECORD r ON e.ZOWNER = r.Z_PK
	WHERE e.ZADDRESSNORMALIZED IS NOT NULL
	ORDER BY e.Z_PK
`

// SavedContacts loads name info keyed by raw and normalized identifiers.
// Earlier sources win on conflicting keys. Unreadable sources are skipped;
// the call fails only when no source could be read.
func (a *AddressBook) SavedContacts(ctx context.Context) (map[string]domain.SavedContactInfo, error) {
	sources := a.Sources()
	if len(sources) == 0 {
		return nil, apperr.AddressBookMissing(a.dir, os.ErrNotExist)
	}

	saved := make(map[string]domain.SavedContactInfo)
	var lastErr error
	read := 0
	for _, path := range sources {
		if err := a.loadSource(ctx, path, saved); err != nil {
			a.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable address book source")
			lastErr = err
			continue
		}
		read++
	}
	if read == 0 {
		return nil, apperr.AddressBookMissing(a.dir, lastErr)
	}

	a.log.Info().Int("sources", read).Int("identifiers", len(saved)).Msg("loaded saved contacts")
	return saved, nil
}

func (a *AddressBook) loadSource(ctx context.Context, path string, saved map[string]domain.SavedContactInfo) error {
	db, err := database.OpenSQLiteReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()

	var phones []nameRow
	if err := db.SelectContext(ctx, &phones, phonesQuery); err != nil {
		return err
	}
	var emails []nameRow
	if err := db.SelectContext(ctx, &emails, emailsQuery); err != nil {
		return err
	}

	put := func(key string, info domain.SavedContactInfo) {
		if key == "" {
			return
		}
		if _, exists := saved[key]; !exists {
			saved[key] = info
		}
	}
	for i := range phones {
		info := phones[i].toDomain()
		put(normalize.Identifier(phones[i].Value), info)
		put(phones[i].Value, info)
	}
	for i := range emails {
		put(strings.ToLower(emails[i].Value), emails[i].toDomain())
	}
	return nil
}
