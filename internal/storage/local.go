package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore implements Store on the local filesystem, rooted at a base
// directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a Store rooted at baseDir. The directory is created
// lazily on first write.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

func (s *LocalStore) path(suffix string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(suffix))
}

func (s *LocalStore) Write(ctx context.Context, path string, content []byte) error {
	full := s.path(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *LocalStore) Read(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(s.path(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return content, nil
}

func (s *LocalStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.path(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

func (s *LocalStore) List(ctx context.Context, folder string) ([]string, error) {
	entries, err := os.ReadDir(s.path(folder))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", folder, ErrNotFound)
		}
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *LocalStore) Remove(ctx context.Context, path string) error {
	if err := os.RemoveAll(s.path(path)); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *LocalStore) Sub(suffix string) Store {
	return NewLocalStore(s.path(suffix))
}

func (s *LocalStore) MakePublic(ctx context.Context, path string) (string, error) {
	return "", ErrNotSupported
}

func (s *LocalStore) PublicURL(ctx context.Context, path string) (string, error) {
	return "", ErrNotSupported
}

func (s *LocalStore) Shutdown(ctx context.Context) error {
	return nil
}
