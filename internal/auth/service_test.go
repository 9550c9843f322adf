package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users map[string]*User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*User)}
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) InsertUser(_ context.Context, username, passwordHash string) error {
	f.users[username] = &User{
		ID:           int64(len(f.users) + 1),
		Username:     username,
		PasswordHash: passwordHash,
	}
	return nil
}

type fakeTenantStore struct {
	quotas map[string]int64
}

func (f *fakeTenantStore) GetBalanceQuota(_ context.Context, apiKey string) (int64, error) {
	quota, ok := f.quotas[apiKey]
	if !ok {
		return 0, ErrInvalidAPIKey
	}
	return quota, nil
}

func (f *fakeTenantStore) DecrementBalanceQuota(_ context.Context, apiKey string) error {
	if f.quotas[apiKey] <= 0 {
		return ErrQuotaExceeded
	}
	f.quotas[apiKey]--
	return nil
}

func newTestService(t *testing.T, tenants TenantStore) (*Service, *fakeUserStore) {
	t.Helper()
	users := newFakeUserStore()
	service, err := NewService(testConfig(), users, tenants)
	require.NoError(t, err)
	return service, users
}

func TestService_SignUpThenSignIn(t *testing.T) {
	service, users := newTestService(t, nil)
	ctx := context.Background()

	pair, err := service.SignUp(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	// Password is stored hashed.
	assert.NotEqual(t, "s3cret", users.users["alice"].PasswordHash)

	pair, err = service.SignIn(ctx, "alice", "s3cret")
	require.NoError(t, err)

	claims, err := service.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestService_SignUpDuplicate(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := service.SignUp(ctx, "alice", "s3cret")
	require.NoError(t, err)
	_, err = service.SignUp(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestService_SignUpEmptyCredentials(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := service.SignUp(ctx, "", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.SignUp(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_SignInFailures(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := service.SignUp(ctx, "alice", "s3cret")
	require.NoError(t, err)

	_, err = service.SignIn(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.SignIn(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Refresh(t *testing.T) {
	service, users := newTestService(t, nil)
	ctx := context.Background()

	pair, err := service.SignUp(ctx, "alice", "s3cret")
	require.NoError(t, err)

	refreshed, err := service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// A deleted account can no longer refresh.
	delete(users.users, "alice")
	_, err = service.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Authorize(t *testing.T) {
	tenants := &fakeTenantStore{quotas: map[string]int64{"good-key": 2, "spent-key": 0}}
	service, _ := newTestService(t, tenants)
	ctx := context.Background()

	require.NoError(t, service.Authorize(ctx, "good-key"))
	assert.Equal(t, int64(1), tenants.quotas["good-key"])

	assert.ErrorIs(t, service.Authorize(ctx, ""), ErrMissingAPIKey)
	assert.ErrorIs(t, service.Authorize(ctx, "unknown"), ErrInvalidAPIKey)
	assert.ErrorIs(t, service.Authorize(ctx, "spent-key"), ErrQuotaExceeded)

	// The second admitted call spends the last unit; the third is refused.
	require.NoError(t, service.Authorize(ctx, "good-key"))
	assert.ErrorIs(t, service.Authorize(ctx, "good-key"), ErrQuotaExceeded)
}

func TestService_AuthorizeDisabledGate(t *testing.T) {
	service, _ := newTestService(t, nil)
	assert.NoError(t, service.Authorize(context.Background(), ""))
}
