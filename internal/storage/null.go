package storage

import "context"

// NullStore is a Store that discards writes and reads back empty content.
// It satisfies the full contract so callers need no conditional logic when
// storage is disabled, and it stands in for real backends in tests.
type NullStore struct{}

// NewNullStore creates a no-op Store.
func NewNullStore() *NullStore {
	return &NullStore{}
}

func (s *NullStore) Write(ctx context.Context, path string, content []byte) error {
	return nil
}

func (s *NullStore) Read(ctx context.Context, path string) ([]byte, error) {
	return []byte{}, nil
}

func (s *NullStore) Exists(ctx context.Context, path string) (bool, error) {
	return false, nil
}

func (s *NullStore) List(ctx context.Context, folder string) ([]string, error) {
	return nil, nil
}

func (s *NullStore) Remove(ctx context.Context, path string) error {
	return nil
}

func (s *NullStore) Sub(suffix string) Store {
	return s
}

func (s *NullStore) MakePublic(ctx context.Context, path string) (string, error) {
	return "", ErrNotSupported
}

func (s *NullStore) PublicURL(ctx context.Context, path string) (string, error) {
	return "", ErrNotSupported
}

func (s *NullStore) Shutdown(ctx context.Context) error {
	return nil
}
