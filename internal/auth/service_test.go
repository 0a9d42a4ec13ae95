package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

type mockRepo struct {
	byEmail map[string]*User
	byID    map[int64]*User
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func testUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{
		ID:           42,
		Email:        "user@example.com",
		Name:         "Test User",
		PasswordHash: string(hash),
		IsActive:     true,
		Assignments: []authz.RoleAssignment{
			{Role: authz.RoleUserStd, On: authz.UnitScope("12345")},
		},
	}
}

func newTestService(t *testing.T, user *User) (*Service, *TokenService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := NewTokenService(TokenServiceConfig{
		Secret:     []byte("test-secret"),
		Issuer:     "carbonledger",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	}, NewDenylist(client))
	repo := &mockRepo{byEmail: map[string]*User{}, byID: map[int64]*User{}}
	if user != nil {
		repo.byEmail[user.Email] = user
		repo.byID[user.ID] = user
	}
	return NewService(repo, tokens), tokens
}

func TestLoginIssuesVerifiableTokens(t *testing.T) {
	user := testUser(t, "correct horse")
	svc, tokens := newTestService(t, user)

	pair, err := svc.Login(context.Background(), user.Email, "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := tokens.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, user.Assignments, claims.Roles)

	principal, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, int64(42), principal.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "correct horse")
	svc, _ := newTestService(t, user)

	_, err := svc.Login(context.Background(), user.Email, "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	user := testUser(t, "correct horse")
	user.IsActive = false
	svc, _ := newTestService(t, user)

	_, err := svc.Login(context.Background(), user.Email, "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	user := testUser(t, "correct horse")
	svc, tokens := newTestService(t, user)

	pair, err := svc.Login(context.Background(), user.Email, "correct horse")
	require.NoError(t, err)

	_, err = tokens.Verify(context.Background(), pair.RefreshToken, TokenTypeAccess)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	user := testUser(t, "correct horse")
	svc, tokens := newTestService(t, user)

	pair, err := svc.Login(context.Background(), user.Email, "correct horse")
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, fresh.AccessToken)

	// The consumed refresh token must be dead.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrTokenRevoked)

	_, err = tokens.Verify(context.Background(), fresh.AccessToken, TokenTypeAccess)
	assert.NoError(t, err)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	user := testUser(t, "correct horse")
	svc, tokens := newTestService(t, user)

	pair, err := svc.Login(context.Background(), user.Email, "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.AccessToken))

	_, err = tokens.Verify(context.Background(), pair.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, shared.ErrTokenRevoked)
}
