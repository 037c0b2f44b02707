package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func TestSignupLoginAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, tok, err := f.auth.Signup(ctx, services.SignupInput{Email: "Carol@Storefront.test", Password: "Sup3r$ecret", FirstName: "Carol"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.Equal(t, "carol@storefront.test", u.Email)
	assert.NotEmpty(t, tok.Token)

	_, _, err = f.auth.Signup(ctx, services.SignupInput{Email: "carol@storefront.test", Password: "Sup3r$ecret"})
	require.ErrorIs(t, err, domain.ErrEmailExists)

	_, tok, err = f.auth.Login(ctx, "carol@storefront.test", "Sup3r$ecret")
	require.NoError(t, err)

	id, err := f.auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, domain.RoleCustomer, id.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.auth.Login(ctx, "alice@storefront.test", "wrong")
	require.ErrorIs(t, err, domain.ErrBadCredentials)
	_, _, err = f.auth.Login(ctx, "nobody@storefront.test", repos.DemoPassword)
	require.ErrorIs(t, err, domain.ErrBadCredentials)

	require.NoError(t, f.users.Deactivate(ctx, "u-bob"))
	_, _, err = f.auth.Login(ctx, "bob@storefront.test", repos.DemoPassword)
	require.ErrorIs(t, err, domain.ErrBadCredentials)
}

func TestAuthenticateResolvesRoleEachTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, tok, err := f.auth.Login(ctx, "vera@storefront.test", repos.DemoPassword)
	require.NoError(t, err)
	id, err := f.auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVendor, id.Role)

	customer := domain.RoleCustomer
	_, err = f.users.Update(ctx, "u-vera", domain.UserPatch{Role: &customer})
	require.NoError(t, err)
	id, err = f.auth.Authenticate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, id.Role)

	require.NoError(t, f.users.Deactivate(ctx, "u-vera"))
	_, err = f.auth.Authenticate(ctx, tok.Token)
	require.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Authenticate(ctx, "")
	require.ErrorIs(t, err, domain.ErrInvalidCredential)
	_, err = f.auth.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, domain.ErrInvalidCredential)

	tok, err := f.auth.Tokens.Issue("u-deleted")
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, tok.Token)
	require.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestUserServiceGuardsPrivilegedFields(t *testing.T) {
	f := newFixture(t)
	svc := services.NewUserService(f.users)
	ctx := context.Background()

	admin := domain.RoleAdmin
	_, err := svc.Update(ctx, "u-alice", domain.UserPatch{Role: &admin}, false)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(ctx, "u-alice", domain.UserPatch{}, false)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	name := "Alicia"
	u, err := svc.Update(ctx, "u-alice", domain.UserPatch{FirstName: &name}, false)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.FirstName)
	assert.Equal(t, domain.RoleCustomer, u.Role)
}
