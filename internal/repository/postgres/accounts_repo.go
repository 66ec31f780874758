package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/models"
)

type accountsRepo struct{ q querier }

const accountColumns = `id, name, balance, owner_id, version, created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	var owner *string
	err := row.Scan(&a.ID, &a.Name, &a.Balance, &owner, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if owner != nil {
		a.OwnerID = *owner
	}
	return a, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *accountsRepo) Create(ctx context.Context, a models.Account) (models.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	out, err := scanAccount(r.q.QueryRow(ctx,
		`INSERT INTO accounts(id, name, balance, owner_id)
		 VALUES($1,$2,$3,$4)
		 RETURNING `+accountColumns,
		a.ID, a.Name, a.Balance, nullable(a.OwnerID),
	))
	if err != nil {
		return models.Account{}, mapErr("accounts.create", "account", a.ID, err)
	}
	return out, nil
}

func (r *accountsRepo) Get(ctx context.Context, id string) (models.Account, error) {
	if err := lookupID("account", id); err != nil {
		return models.Account{}, err
	}
	a, err := scanAccount(r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	return a, mapErr("accounts.get", "account", id, err)
}

func (r *accountsRepo) List(ctx context.Context) ([]models.Account, error) {
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
}

func (r *accountsRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error) {
	if lookupID("user", ownerID) != nil {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id=$1 ORDER BY created_at, id`, ownerID)
}

func (r *accountsRepo) list(ctx context.Context, sql string, args ...any) ([]models.Account, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, models.NewStorageError("accounts.list", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, models.NewStorageError("accounts.list", err)
		}
		out = append(out, a)
	}
	return out, models.NewStorageError("accounts.list", rows.Err())
}

func (r *accountsRepo) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal, expectedVersion int64) (models.Account, error) {
	if err := lookupID("account", id); err != nil {
		return models.Account{}, err
	}
	a, err := scanAccount(r.q.QueryRow(ctx,
		`UPDATE accounts
		    SET balance = balance + $2,
		        version = version + 1,
		        updated_at = now()
		  WHERE id = $1 AND version = $3
		  RETURNING `+accountColumns,
		id, delta, expectedVersion,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// either the row is gone or someone else moved the version
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return models.Account{}, getErr
		}
		return models.Account{}, fmt.Errorf("account %s expected version %d: %w", id, expectedVersion, models.ErrConcurrencyConflict)
	}
	if err != nil {
		return models.Account{}, models.NewStorageError("accounts.adjust_balance", err)
	}
	return a, nil
}
