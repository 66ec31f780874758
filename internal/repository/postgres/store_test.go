package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

var _ repo.Store = (*Store)(nil)

// Ids that are not uuids never reach the database, so no querier is needed.
func TestMalformedIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	r := bind(nil)

	tests := []struct {
		name string
		call func() error
	}{
		{"account get", func() error { _, err := r.Accounts.Get(ctx, "acc_1"); return err }},
		{"account adjust", func() error {
			_, err := r.Accounts.AdjustBalance(ctx, "acc_1", decimal.NewFromInt(-1), 0)
			return err
		}},
		{"transaction get", func() error { _, err := r.Transactions.GetByID(ctx, "nope"); return err }},
		{"rule get", func() error { _, err := r.TopUpRules.Get(ctx, "nope"); return err }},
		{"rule set enabled", func() error { _, err := r.TopUpRules.SetEnabled(ctx, "nope", false); return err }},
		{"user get", func() error { _, err := r.Users.GetByID(ctx, "nope"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.ErrorIs(t, err, models.ErrNotFound)
			var se *models.StorageError
			assert.False(t, errors.As(err, &se))
		})
	}

	accts, err := r.Accounts.ListByOwner(ctx, "nope")
	assert.NoError(t, err)
	assert.Empty(t, accts)
}

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, models.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, models.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapErr("op", "account", "x", tt.err), tt.want)
		})
	}

	var se *models.StorageError
	assert.ErrorAs(t, mapErr("accounts.get", "account", "x", &pgconn.PgError{Code: "23514"}), &se)
	assert.NoError(t, mapErr("accounts.get", "account", "x", nil))
}
