package imessage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sorter/pkg/normalize"
)

func platformTime(ts time.Time) int64 {
	return int64(ts.Sub(normalize.PlatformEpoch))
}

func execAll(t *testing.T, path string, stmts ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
}

const chatSchema = `
	CREATE TABLE handle (ROWID INTEGER PRIMARY KEY, id TEXT);
	CREATE TABLE message (
		ROWID INTEGER PRIMARY KEY,
		text TEXT,
		date INTEGER,
		is_from_me INTEGER,
		handle_id INTEGER
	);
`

const addressBookSchema = `
	CREATE TABLE ZABCDRECORD (Z_PK INTEGER PRIMARY KEY, ZFIRSTNAME TEXT, ZLASTNAME TEXT);
	CREATE TABLE ZABCDPHONENUMBER (Z_PK INTEGER PRIMARY KEY, ZOWNER INTEGER, ZFULLNUMBER TEXT);
	CREATE TABLE ZABCDEMAILADDRESS (Z_PK INTEGER PRIMARY KEY, ZOWNER INTEGER, ZADDRESSNORMALIZED TEXT);
`
