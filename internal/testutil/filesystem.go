package testutil

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"archview/internal/archive"
)

// MockLocalFilesystem is an in-memory archive.LocalFilesystem.
// Files can be marked busy to simulate another process holding them open.
type MockLocalFilesystem struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
	busy  map[string]bool

	// Writes counts successful WriteFile calls.
	Writes int
	// WriteErr, when set, is returned by every WriteFile call.
	WriteErr error
	// RemoveErr, when set, is returned by every Remove call.
	RemoveErr error
}

// NewMockLocalFilesystem creates an empty mock filesystem.
func NewMockLocalFilesystem() *MockLocalFilesystem {
	return &MockLocalFilesystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
		busy:  make(map[string]bool),
	}
}

// AddFile places a file with content at path.
func (m *MockLocalFilesystem) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = content
	m.dirs[filepath.Dir(filepath.Clean(path))] = true
}

// SetBusy marks path as held open by another process.
func (m *MockLocalFilesystem) SetBusy(path string, busy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy[filepath.Clean(path)] = busy
}

// Content returns the bytes stored at path.
func (m *MockLocalFilesystem) Content(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[filepath.Clean(path)]
	return b, ok
}

// Paths returns all file paths, sorted.
func (m *MockLocalFilesystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// HasDir reports whether dir was created.
func (m *MockLocalFilesystem) HasDir(dir string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[filepath.Clean(dir)]
}

func (m *MockLocalFilesystem) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok, nil
}

func (m *MockLocalFilesystem) Open(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *MockLocalFilesystem) MkdirAll(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[filepath.Clean(dir)] = true
	return nil
}

func (m *MockLocalFilesystem) IsBusy(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy[filepath.Clean(path)], nil
}

func (m *MockLocalFilesystem) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	p := filepath.Clean(path)
	if !m.dirs[filepath.Dir(p)] {
		return fmt.Errorf("directory does not exist: %s", filepath.Dir(p))
	}
	m.files[p] = append([]byte(nil), data...)
	m.Writes++
	return nil
}

func (m *MockLocalFilesystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	p := filepath.Clean(path)
	if _, ok := m.files[p]; !ok {
		return fmt.Errorf("file not found: %s", path)
	}
	delete(m.files, p)
	return nil
}

// Compile-time check
var _ archive.LocalFilesystem = (*MockLocalFilesystem)(nil)
