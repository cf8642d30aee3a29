package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorter/core/domain"
	"sorter/pkg/apperr"
)

func TestContactFile_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	f := NewContactFile(path)

	name := "Ada Lovelace"
	last := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	in := []domain.ExtractedContact{
		{ID: "contact-1", Identifier: "+13175551234", DisplayName: &name, MessageCount: 10, SentCount: 4, ReceivedCount: 6, LastMessageDate: &last, IsSavedContact: true},
		{ID: "contact-2", Identifier: "friend@example.com", MessageCount: 3, SentCount: 1, ReceivedCount: 2},
	}
	require.NoError(t, f.Write(context.Background(), in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"displayName": null`)
	assert.Contains(t, string(raw), `"lastMessageDate": "2024-05-06T07:08:09Z"`)
	assert.Contains(t, string(raw), `"isSavedContact": true`)

	out, err := f.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Ada Lovelace", *out[0].DisplayName)
	assert.True(t, last.Equal(*out[0].LastMessageDate))
	assert.Nil(t, out[1].DisplayName)
	assert.Nil(t, out[1].LastMessageDate)
}

func TestContactFile_EmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, NewContactFile(path).Write(context.Background(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestContactFile_ReadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewContactFile(filepath.Join(dir, "missing.json")).Read(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeStoreUnavailable))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "an array"}`), 0o600))
	_, err = NewContactFile(bad).Read(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidRecord))

	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`[{"identifier": "x@example.com"}]`), 0o600))
	_, err = NewContactFile(noID).Read(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidRecord))
}
