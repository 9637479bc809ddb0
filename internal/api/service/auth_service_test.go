package service_test

import (
	"context"
	"testing"
	"time"

	"kointos-backend/internal/api/dto"
	"kointos-backend/internal/api/repository"
	"kointos-backend/internal/api/service"
	"kointos-backend/internal/auth"
	"kointos-backend/internal/testutil"
	"kointos-backend/pkg/config"
	"kointos-backend/pkg/errs"
	"kointos-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T, emailLogin bool) (service.AuthService, *auth.TokenIssuer) {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("kointos-auth", "test-secret", time.Hour)
	require.NoError(t, err)
	cfg := config.Auth{Name: "kointos-auth", LoginWith: config.LoginWith{Email: emailLogin}}
	repo := repository.NewIdentityRepository(testutil.NewDB(t))
	return service.NewAuthService(cfg, repo, tokens, logger.NewNop()), tokens
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, tokens := newAuthService(t, true)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, &dto.CredentialsRequest{Email: " Alice@Example.com ", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Empty(t, created.Groups)

	_, err = svc.SignUp(ctx, &dto.CredentialsRequest{Email: "alice@example.com", Password: "another-password"})
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	tok, err := svc.SignIn(ctx, &dto.CredentialsRequest{Email: "alice@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)

	id, err := tokens.Verify(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, id.Subject)

	me, err := svc.Me(ctx, id.Subject)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t, true)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, &dto.CredentialsRequest{Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, &dto.CredentialsRequest{Email: "bob@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, &dto.CredentialsRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestEmailLoginDisabled(t *testing.T) {
	svc, _ := newAuthService(t, false)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, &dto.CredentialsRequest{Email: "a@example.com", Password: "password123"})
	assert.ErrorIs(t, err, errs.ErrLoginDisabled)
	_, err = svc.SignIn(ctx, &dto.CredentialsRequest{Email: "a@example.com", Password: "password123"})
	assert.ErrorIs(t, err, errs.ErrLoginDisabled)
}
