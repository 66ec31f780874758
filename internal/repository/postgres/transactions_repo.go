package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/baharkarakas/autotopup-backend/internal/models"
)

type transactionsRepo struct{ q querier }

const txColumns = `id, account_id, amount, merchant, description, category, type, created_at`

func scanTx(row pgx.Row) (models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(&tx.ID, &tx.AccountID, &tx.Amount, &tx.Merchant, &tx.Description, &tx.Category, &tx.Type, &tx.Timestamp)
	return tx, err
}

func (r *transactionsRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	out, err := scanTx(r.q.QueryRow(ctx,
		`INSERT INTO transactions(id, account_id, amount, merchant, description, category, type)
		 VALUES($1,$2,$3,$4,$5,$6,$7)
		 RETURNING `+txColumns,
		tx.ID, tx.AccountID, tx.Amount, tx.Merchant, tx.Description, tx.Category, tx.Type,
	))
	if err != nil {
		return models.Transaction{}, mapErr("transactions.create", "transaction", tx.ID, err)
	}
	return out, nil
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	if err := lookupID("transaction", id); err != nil {
		return models.Transaction{}, err
	}
	tx, err := scanTx(r.q.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id=$1`, id))
	return tx, mapErr("transactions.get", "transaction", id, err)
}

func (r *transactionsRepo) List(ctx context.Context, accountID string) ([]models.Transaction, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+txColumns+`
		   FROM transactions
		  WHERE $1 = '' OR account_id::text = $1
		  ORDER BY created_at DESC, seq DESC`,
		accountID,
	)
	if err != nil {
		return nil, models.NewStorageError("transactions.list", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, models.NewStorageError("transactions.list", err)
		}
		out = append(out, tx)
	}
	return out, models.NewStorageError("transactions.list", rows.Err())
}
