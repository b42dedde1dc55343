package persistence

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
)

// fileKVStore keeps one JSON file per key under a base directory. Writes go to a temp file
// that is renamed over the old one, so a failed write never leaves a partial value.
type fileKVStore struct {
	fs       afero.Fs
	basePath string
	mu       sync.RWMutex
}

func NewFileKVStore(fsys afero.Fs, basePath string) (portfolio.KeyValueStore, error) {
	if err := fsys.MkdirAll(basePath, 0o755); err != nil {
		return nil, apperror.NewInternal("failed to create storage directory", err)
	}
	return &fileKVStore{fs: fsys, basePath: basePath}, nil
}

func (s *fileKVStore) path(key string) string {
	return filepath.Join(s.basePath, filepath.Base(key)+".json")
}

func (s *fileKVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NewNotFound("stored value", key)
		}
		return nil, apperror.NewInternal("failed to read storage file", err)
	}
	return value, nil
}

func (s *fileKVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := afero.TempFile(s.fs, s.basePath, filepath.Base(key)+".*.tmp")
	if err != nil {
		return apperror.NewInternal("failed to create temp storage file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return apperror.NewInternal("failed to write storage file", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return apperror.NewInternal("failed to close storage file", err)
	}
	if err := s.fs.Rename(tmpName, s.path(key)); err != nil {
		s.fs.Remove(tmpName)
		return apperror.NewInternal("failed to replace storage file", err)
	}
	return nil
}
