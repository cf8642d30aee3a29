package imessage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorter/core/domain"
	"sorter/pkg/apperr"
)

func TestAddressBook_SavedContacts(t *testing.T) {
	dir := t.TempDir()
	execAll(t, filepath.Join(dir, "Sources", "A", addressBookFile),
		addressBookSchema,
		`INSERT INTO ZABCDRECORD (Z_PK, ZFIRSTNAME, ZLASTNAME) VALUES (1, 'Ada', 'Lovelace'), (2, NULL, 'Hopper')`,
		`INSERT INTO ZABCDPHONENUMBER (ZOWNER, ZFULLNUMBER) VALUES (1, '+1 (317) 555-1234')`,
		`INSERT INTO ZABCDEMAILADDRESS (ZOWNER, ZADDRESSNORMALIZED) VALUES (2, 'Grace@Example.com')`,
	)
	execAll(t, filepath.Join(dir, addressBookFile),
		addressBookSchema,
		`INSERT INTO ZABCDRECORD (Z_PK, ZFIRSTNAME, ZLASTNAME) VALUES (1, 'Other', 'Name')`,
		`INSERT INTO ZABCDPHONENUMBER (ZOWNER, ZFULLNUMBER) VALUES (1, '317-555-1234'), (1, '555-0000')`,
	)
	// An unreadable account is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Sources", "B"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sources", "B", addressBookFile), []byte("not sqlite"), 0o600))

	book := NewAddressBook(dir, zerolog.Nop())
	assert.Len(t, book.Sources(), 3)

	saved, err := book.SavedContacts(context.Background())
	require.NoError(t, err)

	ada := domain.SavedContactInfo{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, ada, saved["3175551234"])
	assert.Equal(t, ada, saved["+1 (317) 555-1234"])
	assert.Equal(t, domain.SavedContactInfo{FirstName: "Other", LastName: "Name"}, saved["317-555-1234"])
	assert.Equal(t, domain.SavedContactInfo{LastName: "Hopper"}, saved["grace@example.com"])
	assert.Contains(t, saved, "5550000")
}

func TestAddressBook_Missing(t *testing.T) {
	_, err := NewAddressBook(t.TempDir(), zerolog.Nop()).SavedContacts(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeAddressBookMissing))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, addressBookFile), []byte("garbage"), 0o600))
	_, err = NewAddressBook(dir, zerolog.Nop()).SavedContacts(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeAddressBookMissing))
}
