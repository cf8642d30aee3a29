// Package filestore implements the JSON interchange file shared by the
// extract and upload steps.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"sorter/core/domain"
	"sorter/core/port/out"
	"sorter/pkg/apperr"
)

// DefaultPath is the interchange file used when none is configured.
const DefaultPath = "contacts.json"

// ContactFile implements out.ContactFile as a JSON array on disk.
type ContactFile struct {
	path string
}

// NewContactFile creates a ContactFile at path.
func NewContactFile(path string) *ContactFile {
	if path == "" {
		path = DefaultPath
	}
	return &ContactFile{path: path}
}

// Path returns the file location.
func (f *ContactFile) Path() string {
	return f.path
}

// Write replaces the file atomically. Null names and dates are written as
// JSON null.
func (f *ContactFile) Write(ctx context.Context, contacts []domain.ExtractedContact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if contacts == nil {
		contacts = []domain.ExtractedContact{}
	}

	data, err := json.MarshalIndent(contacts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".contacts-*.json")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", f.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	return os.Rename(tmp.Name(), f.path)
}

// Read loads the file. Records without an id or identifier are rejected.
func (f *ContactFile) Read(ctx context.Context) ([]domain.ExtractedContact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, apperr.StoreUnavailable(f.path, err)
	}

	var contacts []domain.ExtractedContact
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInvalidRecord, "malformed contacts file", 400).
			WithDetail("path", f.path)
	}
	for i := range contacts {
		if contacts[i].ID == "" || contacts[i].Identifier == "" {
			return nil, apperr.InvalidRecord(fmt.Sprintf("#%d", i), "missing id or identifier")
		}
	}
	return contacts, nil
}

var _ out.ContactFile = (*ContactFile)(nil)
