// Package localfs is the local side of the file picker: choosing a file to
// upload and browsing directories from the terminal.
package localfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cloudfm/cloudfm/internal/models"
)

// Selection errors
var (
	ErrIsDirectory = errors.New("is a directory")
	ErrNotRegular  = errors.New("not a regular file")
)

// Entry is a file or directory in a local listing.
type Entry struct {
	Path    string
	Name    string
	Size    int64
	IsDir   bool
	ModTime time.Time
	Mode    fs.FileMode
}

// ListOptions configures ListDirectory.
type ListOptions struct {
	// IncludeHidden includes dotfiles in results.
	IncludeHidden bool
}

// IsHiddenName reports whether name is a dotfile. "." and ".." are not hidden.
func IsHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Select validates path as an uploadable file and returns it as a selection.
func Select(path string) (models.SelectedFile, error) {
	if strings.TrimSpace(path) == "" {
		return models.SelectedFile{}, errors.New("no path given")
	}
	abs, err := filepath.Abs(ExpandHome(path))
	if err != nil {
		return models.SelectedFile{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return models.SelectedFile{}, err
	}
	if info.IsDir() {
		return models.SelectedFile{}, fmt.Errorf("%s: %w", abs, ErrIsDirectory)
	}
	if !info.Mode().IsRegular() {
		return models.SelectedFile{}, fmt.Errorf("%s: %w", abs, ErrNotRegular)
	}

	return models.NewSelectedFile(abs, info.Size()), nil
}

// ListDirectory returns the contents of a directory with directories first,
// then files, each group sorted by name.
func ListDirectory(path string, opts ListOptions) ([]Entry, error) {
	path = ExpandHome(path)
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	result := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !opts.IncludeHidden && IsHiddenName(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Vanished or unreadable between ReadDir and Info
			continue
		}

		result = append(result, Entry{
			Path:    filepath.Join(path, name),
			Name:    name,
			Size:    info.Size(),
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].IsDir != result[j].IsDir {
			return result[i].IsDir
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// Picker is the file-picker control shared by the shell and the desktop
// dashboard. It remembers the last path chosen; Reset clears it after a
// successful upload.
type Picker struct {
	mu   sync.Mutex
	last string
}

// NewPicker creates an empty picker.
func NewPicker() *Picker {
	return &Picker{}
}

// Pick validates path and records it as the picker's current value.
func (p *Picker) Pick(path string) (models.SelectedFile, error) {
	f, err := Select(path)
	if err != nil {
		return models.SelectedFile{}, err
	}
	p.mu.Lock()
	p.last = f.Path
	p.mu.Unlock()
	return f, nil
}

// Value returns the path currently shown in the picker, or "".
func (p *Picker) Value() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Reset clears the picker.
func (p *Picker) Reset() {
	p.mu.Lock()
	p.last = ""
	p.mu.Unlock()
}
