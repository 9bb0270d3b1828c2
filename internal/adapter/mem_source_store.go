package adapter

import (
	"sort"
	"sync"

	m "github.com/patchtree/patchtree/internal/model"
)

// MemSourceStore is an in-memory SourceStore. With a base store it acts as
// a copy-on-write overlay: reads fall through to the base until a write
// shadows them, and nothing ever reaches the base. This backs dry runs and
// is the snapshot mechanism callers use for all-or-nothing semantics.
// Without a base it is a plain fixture store for tests.
//
// The store is safe for concurrent use on disjoint files, which is the only
// concurrency the workflow exploits.
type MemSourceStore struct {
	mu      sync.RWMutex
	base    SourceStore
	files   map[string][]byte
	deleted map[string]struct{}
}

// NewMemSourceStore constructs an empty in-memory store.
func NewMemSourceStore() *MemSourceStore {
	return &MemSourceStore{
		files:   map[string][]byte{},
		deleted: map[string]struct{}{},
	}
}

// NewOverlayStore constructs a copy-on-write overlay over base.
func NewOverlayStore(base SourceStore) *MemSourceStore {
	store := NewMemSourceStore()
	store.base = base

	return store
}

// Seed loads fixture content, bypassing the Create existence check.
func (s *MemSourceStore) Seed(file string, content string) *MemSourceStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[file] = []byte(content)
	delete(s.deleted, file)

	return s
}

// Exists reports whether the file is visible through the overlay.
func (s *MemSourceStore) Exists(file string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.existsLocked(file)
}

func (s *MemSourceStore) existsLocked(file string) bool {
	if _, ok := s.deleted[file]; ok {
		return false
	}

	if _, ok := s.files[file]; ok {
		return true
	}

	return s.base != nil && s.base.Exists(file)
}

// Read returns the overlay's view of the file.
func (s *MemSourceStore) Read(file string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.deleted[file]; ok {
		return nil, m.NewFileNotFound(file)
	}

	if content, ok := s.files[file]; ok {
		copied := make([]byte, len(content))
		copy(copied, content)

		return copied, nil
	}

	if s.base != nil {
		return s.base.Read(file)
	}

	return nil, m.NewFileNotFound(file)
}

// Create writes a new file into the overlay.
func (s *MemSourceStore) Create(file string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.existsLocked(file) {
		return m.NewInvalidOperation(file, "file already exists")
	}

	s.files[file] = append([]byte(nil), content...)
	delete(s.deleted, file)

	return nil
}

// Replace overwrites the overlay's view of an existing file.
func (s *MemSourceStore) Replace(file string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.existsLocked(file) {
		return m.NewFileNotFound(file)
	}

	s.files[file] = append([]byte(nil), content...)
	delete(s.deleted, file)

	return nil
}

// Delete removes the file from the overlay's view.
func (s *MemSourceStore) Delete(file string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.existsLocked(file) {
		return m.NewFileNotFound(file)
	}

	delete(s.files, file)
	s.deleted[file] = struct{}{}

	return nil
}

// Changes reports every file the overlay diverges on, sorted by path, with
// before and after content for diff rendering.
func (s *MemSourceStore) Changes() []m.FileChange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var changes []m.FileChange

	for file, content := range s.files {
		change := m.FileChange{Path: file, After: string(content)}

		if s.base != nil && s.base.Exists(file) {
			if before, err := s.base.Read(file); err == nil {
				change.Before = string(before)
			}
		} else {
			change.Created = true
		}

		if change.Before == change.After && !change.Created {
			continue
		}

		changes = append(changes, change)
	}

	for file := range s.deleted {
		change := m.FileChange{Path: file, Deleted: true}

		if s.base != nil {
			if before, err := s.base.Read(file); err == nil {
				change.Before = string(before)
			}
		}

		changes = append(changes, change)
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})

	return changes
}
