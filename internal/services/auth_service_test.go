package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories/memory"
	"github.com/blacklisthub/blacklisthub-backend/pkg/jwt"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	svc := NewAuthService(memory.NewUserRepository(), jwt.NewSessionTokenService("test-secret", time.Hour), discardLogger())
	require.NoError(t, svc.EnsureBootstrapAdmin(context.Background(), "root", "root-password"))
	return svc
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Login(context.Background(), &models.LoginRequest{Username: "root", Password: "root-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleSuperAdmin, resp.User.Role)

	got, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "root", got.Username)
	assert.Equal(t, models.RoleSuperAdmin, got.Role)
	assert.Equal(t, resp.User.ID.Hex(), got.UID)
	assert.Equal(t, time.Hour, svc.TokenTTL())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)

	for _, req := range []*models.LoginRequest{
		{Username: "root", Password: "wrong"},
		{Username: "nobody", Password: "root-password"},
	} {
		_, err := svc.Login(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		assert.Equal(t, "invalid username or password", apperrors.Message(err))
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	other := jwt.NewSessionTokenService("other-secret", time.Hour)
	token, err := other.Issue("uid", "mallory", string(models.RoleSuperAdmin))
	require.NoError(t, err)
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCreateUserPermissions(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	req := func(username string, role models.Role) *models.CreateUserRequest {
		return &models.CreateUserRequest{Username: username, Password: "password123", Role: role}
	}

	_, err := svc.CreateUser(ctx, req("r1", models.RoleReporter), actor(models.RoleReviewer))
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	_, err = svc.CreateUser(ctx, req("s1", models.RoleSuperAdmin), actor(models.RoleAdmin))
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	_, err = svc.CreateUser(ctx, req("x1", models.Role("owner")), actor(models.RoleAdmin))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	user, err := svc.CreateUser(ctx, req("r1", models.RoleReporter), actor(models.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, models.RoleReporter, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err = svc.CreateUser(ctx, req("r1", models.RoleReviewer), actor(models.RoleSuperAdmin))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateUser(ctx, req("s1", models.RoleSuperAdmin), actor(models.RoleSuperAdmin))
	assert.NoError(t, err)

	_, err = svc.CreateUser(ctx, req("r2", models.RoleReporter), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestEnsureBootstrapAdminOnlyOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	svc := NewAuthService(repo, jwt.NewSessionTokenService("test-secret", time.Hour), discardLogger())

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "", ""))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "root", "first"))
	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "root2", "second"))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
