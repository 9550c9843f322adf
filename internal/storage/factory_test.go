package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Local(t *testing.T) {
	store, err := New(context.Background(), BackendConfig{Type: TypeLocal, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
}

func TestNew_LocalRequiresDir(t *testing.T) {
	_, err := New(context.Background(), BackendConfig{Type: TypeLocal})
	assert.Error(t, err)
}

func TestNew_NullDefault(t *testing.T) {
	store, err := New(context.Background(), BackendConfig{})
	require.NoError(t, err)
	assert.IsType(t, &NullStore{}, store)
}

func TestNew_S3RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), BackendConfig{Type: TypeS3})
	assert.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(context.Background(), BackendConfig{Type: "ftp"})
	assert.Error(t, err)
}
