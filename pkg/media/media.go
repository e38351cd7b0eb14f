// Package media stores person attachments (photos, PDFs) as files in a
// vault directory. Files are named by a generated uuid plus the original
// extension; the returned name is what callers persist on the record.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for names that would escape the vault
// directory.
var ErrInvalidName = errors.New("invalid media file name")

// Vault is a directory-backed attachment store.
type Vault struct {
	dir string
}

// NewVault creates the vault directory if needed and returns a vault over it.
func NewVault(dir string) (*Vault, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	return &Vault{dir: dir}, nil
}

// Dir returns the vault directory.
func (v *Vault) Dir() string { return v.dir }

// Save writes data under a fresh uuid-based name with the given extension
// (without the leading dot) and returns the stored file name.
func (v *Vault) Save(data []byte, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	if err := os.WriteFile(filepath.Join(v.dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}
	return name, nil
}

// Path returns the absolute path of a stored file name.
// Returns ErrInvalidName for names with path separators or traversal.
func (v *Vault) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(v.dir, name), nil
}

// Open reads a stored file.
func (v *Vault) Open(name string) ([]byte, error) {
	path, err := v.Path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Delete removes a stored file. Deleting a missing file is a no-op.
func (v *Vault) Delete(name string) error {
	path, err := v.Path(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
