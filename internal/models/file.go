// Package models holds the data types shared between the backend client,
// the panel state and the front ends.
package models

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileEntry is one row of a provider listing.
// Identity is ID; the backend is trusted for uniqueness.
type FileEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserIdentity is the connected account for a provider.
type UserIdentity struct {
	DisplayName string
	Email       string
}

// Label returns the best available human label for the identity.
func (u UserIdentity) Label() string {
	switch {
	case u.DisplayName != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.DisplayName, u.Email)
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	default:
		return "Connected account"
	}
}

// SelectedFile is a local file chosen for upload.
type SelectedFile struct {
	Path string // Absolute path on the local filesystem
	Name string // Base name sent to the backend
	Size int64  // Size in bytes at selection time
}

// Open opens the selected file for reading.
func (f SelectedFile) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// NewSelectedFile builds a SelectedFile from a path and its size.
func NewSelectedFile(path string, size int64) SelectedFile {
	return SelectedFile{
		Path: path,
		Name: filepath.Base(path),
		Size: size,
	}
}
