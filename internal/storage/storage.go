package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

var (
	// ErrEmptyPath indicates a write was requested without a destination.
	ErrEmptyPath = errors.New("destination path must not be empty")
)

// Storage persists generated files.
type Storage interface {
	WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error
}

// FileStorage writes to the local filesystem. Each write goes to a temp file
// in the destination directory which is synced and then renamed into place.
type FileStorage struct {
	dirPerm os.FileMode
}

// NewFileStorage creates a FileStorage that creates missing directories with mode 0755.
func NewFileStorage() *FileStorage {
	return &FileStorage{dirPerm: 0o755}
}

// WriteFile atomically replaces path with data.
func (s *FileStorage) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".functest-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	success = true
	return nil
}

// File is a write captured by MemoryStorage.
type File struct {
	Path string
	Data []byte
	Perm os.FileMode
}

// MemoryStorage records writes in memory and guards access with a RWMutex.
// It backs dry runs.
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[string]File
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{files: make(map[string]File)}
}

// WriteFile records a copy of data under path.
func (s *MemoryStorage) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.files[path] = File{Path: path, Data: buf, Perm: perm}
	s.mu.Unlock()

	return nil
}

// Files returns the recorded writes sorted by path.
func (s *MemoryStorage) Files() []File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]File, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
