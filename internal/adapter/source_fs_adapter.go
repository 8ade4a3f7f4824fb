// Package adapter contains the codec, filesystem and storage adapters behind
// the qidicom domain layer.
package adapter

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	m "github.com/mouse-blink/qidicom/internal/model"
)

// ErrNotDirectory is returned when a directory was expected.
var ErrNotDirectory = errors.New("not a directory")

// SourceFSAdapter abstracts the filesystem operations the domain layer relies
// on when scanning image trees, so the workflow logic can be tested without
// touching the disk.
type SourceFSAdapter interface {
	// Files lazily lists the regular files under root. A failure on root
	// itself is yielded once with root as the path and ends the sequence.
	// Failures below root are yielded with the failing path and the walk
	// carries on.
	Files(root m.Path) iter.Seq2[m.Path, error]

	// HashFile returns a stable fingerprint (SHA-256) for the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// RequireDir fails unless path is an existing directory.
	RequireDir(path m.Path) error

	// MkdirAll creates path and any missing parents.
	MkdirAll(path m.Path) error

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Files walks root depth-first in lexical order. The walk advances only as
// the consumer pulls.
func (a *LocalSourceFSAdapter) Files(root m.Path) iter.Seq2[m.Path, error] {
	return func(yield func(m.Path, error) bool) {
		rootStr := string(root)

		if err := a.RequireDir(root); err != nil {
			yield(root, err)

			return
		}

		_ = filepath.WalkDir(rootStr, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == rootStr {
					yield(root, err)

					return filepath.SkipAll
				}

				if !yield(m.Path(path), err) {
					return filepath.SkipAll
				}

				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			if !yield(m.Path(path), nil) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// RequireDir fails unless path exists and is a directory.
func (a *LocalSourceFSAdapter) RequireDir(path m.Path) error {
	info, err := a.FileInfo(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}

	return nil
}

// MkdirAll creates path and any missing parents.
func (a *LocalSourceFSAdapter) MkdirAll(path m.Path) error {
	return os.MkdirAll(string(path), 0o750)
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
