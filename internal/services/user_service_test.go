package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/models"
)

func TestSignup_OpensStarterAccounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, pair, err := e.svc.Users.Signup(ctx, SignupRequest{Name: "Ada", Email: " Ada@Example.com ", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "user", u.Role)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	accts, err := e.svc.Accounts.ListByOwner(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.Equal(t, "Current Account", accts[0].Name)
	assert.True(t, accts[0].Balance.Equal(dec("100")))
	assert.Equal(t, "Savings Account", accts[1].Name)
	assert.True(t, accts[1].Balance.Equal(dec("500")))

	_, _, err = e.svc.Users.Signup(ctx, SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, models.ErrDuplicate)
}

func TestSignup_Validation(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.svc.Users.Signup(context.Background(), SignupRequest{Name: "A", Email: "nope", Password: "x"})
	var errs validate.Errs
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
}

func TestLoginAndRefresh(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, _, err := e.svc.Users.Signup(ctx, SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "hunter22"})
	require.NoError(t, err)

	pair, err := e.svc.Users.Login(ctx, "ADA@example.com", "hunter22")
	require.NoError(t, err)

	_, err = e.svc.Users.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = e.svc.Users.Login(ctx, "bob@example.com", "hunter22")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	next, err := e.svc.Users.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)

	_, err = e.svc.Users.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAccountCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Accounts.Create(ctx, CreateAccountRequest{Name: "x", Balance: dec("-1")})
	var errs validate.Errs
	require.ErrorAs(t, err, &errs)

	_, err = e.svc.Accounts.Create(ctx, CreateAccountRequest{Name: "x", OwnerID: "ghost"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	a, err := e.svc.Accounts.Create(ctx, CreateAccountRequest{Name: "Joint", Balance: dec("12.34")})
	require.NoError(t, err)
	all, _ := e.svc.Accounts.List(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)
}
