package metadata

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPools_GetCachesPerConfig(t *testing.T) {
	inits := 0
	pools := NewPools(func(*sql.DB) error {
		inits++
		return nil
	})
	defer pools.Close()

	cfg := DefaultConfig()
	cfg.URL = "postgres://localhost:5432/pools_test_a"

	first, err := pools.Get(cfg)
	require.NoError(t, err)
	second, err := pools.Get(cfg)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, inits, "init must run once per created pool")
}

func TestPools_DistinctURLsGetDistinctPools(t *testing.T) {
	inits := 0
	pools := NewPools(func(*sql.DB) error {
		inits++
		return nil
	})
	defer pools.Close()

	cfgA := DefaultConfig()
	cfgA.URL = "postgres://localhost:5432/pools_test_a"
	cfgB := DefaultConfig()
	cfgB.URL = "postgres://localhost:5432/pools_test_b"

	a, err := pools.Get(cfgA)
	require.NoError(t, err)
	b, err := pools.Get(cfgB)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, inits)
}

func TestPools_SameURLDifferentLimitsGetDistinctPools(t *testing.T) {
	inits := 0
	pools := NewPools(func(*sql.DB) error {
		inits++
		return nil
	})
	defer pools.Close()

	cfgA := DefaultConfig()
	cfgA.URL = "postgres://localhost:5432/pools_test_limits"
	cfgA.MaxOpenConns = 10
	cfgB := cfgA
	cfgB.MaxOpenConns = 2

	a, err := pools.Get(cfgA)
	require.NoError(t, err)
	b, err := pools.Get(cfgB)
	require.NoError(t, err)

	// Sharing a DSN must not silently reuse the first pool's limits.
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, inits)
	assert.Equal(t, 2, b.Stats().MaxOpenConnections)
}

func TestPools_InitFailureIsNotCached(t *testing.T) {
	boom := errors.New("schema failed")
	calls := 0
	pools := NewPools(func(*sql.DB) error {
		calls++
		if calls == 1 {
			return boom
		}
		return nil
	})
	defer pools.Close()

	cfg := DefaultConfig()
	cfg.URL = "postgres://localhost:5432/pools_test_c"

	_, err := pools.Get(cfg)
	require.ErrorIs(t, err, boom)

	// The failed pool must not be cached; the next Get retries init.
	db, err := pools.Get(cfg)
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.Equal(t, 2, calls)
}

func TestPools_CloseEmptiesCache(t *testing.T) {
	pools := NewPools(nil)

	cfg := DefaultConfig()
	cfg.URL = "postgres://localhost:5432/pools_test_d"

	first, err := pools.Get(cfg)
	require.NoError(t, err)
	require.NoError(t, pools.Close())

	// After Close a fresh pool is created for the same URL.
	second, err := pools.Get(cfg)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	require.NoError(t, pools.Close())
}
