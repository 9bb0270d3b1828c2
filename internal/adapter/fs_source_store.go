package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	m "github.com/patchtree/patchtree/internal/model"
)

// FSSourceStore is the SourceStore backed by the real filesystem, rooted at
// a project directory. It hides direct `os` access so the engine can be
// tested without touching the disk.
type FSSourceStore struct {
	root string
}

// NewFSSourceStore constructs a store rooted at the given directory.
func NewFSSourceStore(root string) *FSSourceStore {
	return &FSSourceStore{root: root}
}

func (s *FSSourceStore) abs(file string) string {
	return filepath.Join(s.root, filepath.FromSlash(file))
}

// Exists reports whether the file is present under the root.
func (s *FSSourceStore) Exists(file string) bool {
	info, err := os.Stat(s.abs(file))

	return err == nil && !info.IsDir()
}

// Read loads the file's content.
func (s *FSSourceStore) Read(file string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, m.NewFileNotFound(file)
		}

		return nil, m.WrapIO(file, err)
	}

	return data, nil
}

// Create writes a new file, creating parent directories as needed.
func (s *FSSourceStore) Create(file string, content []byte) error {
	target := s.abs(file)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return m.WrapIO(file, err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return m.NewInvalidOperation(file, "file already exists")
		}

		return m.WrapIO(file, err)
	}

	defer func() { _ = f.Close() }()

	if _, err := f.Write(content); err != nil {
		return m.WrapIO(file, err)
	}

	return nil
}

// Replace overwrites an existing file's content.
func (s *FSSourceStore) Replace(file string, content []byte) error {
	if !s.Exists(file) {
		return m.NewFileNotFound(file)
	}

	if err := os.WriteFile(s.abs(file), content, 0o644); err != nil {
		return m.WrapIO(file, err)
	}

	return nil
}

// Delete removes the file.
func (s *FSSourceStore) Delete(file string) error {
	err := os.Remove(s.abs(file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m.NewFileNotFound(file)
		}

		return m.WrapIO(file, err)
	}

	return nil
}

// FindProjectRoot walks up from startPath looking for a go.mod file, the
// same convention module-aware tooling uses.
func FindProjectRoot(startPath string) (string, error) {
	dir, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory of %s", startPath)
		}

		dir = parent
	}
}
