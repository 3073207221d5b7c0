package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStorage keeps objects as files under a root folder.
// Locations are absolute paths below that folder.
type LocalStorage struct {
	fs   afero.Fs
	root string
}

// NewLocalStorage resolves a relative root against the working directory once,
// so locations stay valid for processes started elsewhere.
func NewLocalStorage(fsys afero.Fs, root string) *LocalStorage {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &LocalStorage{fs: fsys, root: root}
}

func (s *LocalStorage) Location(name string) string {
	return filepath.Join(s.root, name)
}

// Save writes content to a temp file next to location and renames it into place,
// so readers never observe a partially written object.
func (s *LocalStorage) Save(_ context.Context, location string, content io.Reader) error {
	// The root may have been removed since startup; recreate it on every write.
	dir := filepath.Dir(location)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dirs for %s: %w", location, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", location, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", location, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", location, err)
	}

	if err := s.fs.Rename(tmpName, location); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", location, err)
	}

	return nil
}

func (s *LocalStorage) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := s.fs.Open(location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", location, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrObjectNotFound
	}

	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, location string) error {
	err := s.fs.Remove(location)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", location, err)
	}
	return nil
}
