package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every repo runs unchanged inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

func bind(q querier) repo.Repositories {
	return repo.Repositories{
		Users:        &usersRepo{q},
		Accounts:     &accountsRepo{q},
		Transactions: &transactionsRepo{q},
		TopUpRules:   &rulesRepo{q},
		TopUpEvents:  &eventsRepo{q},
		AuditLogs:    &auditLogsRepo{q},
	}
}

func (s *Store) Repos() repo.Repositories { return bind(s.pool) }

// WithinTx runs fn in a single serializable transaction and rolls back when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return models.NewStorageError("begin", err)
	}
	if err := fn(bind(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.NewStorageError("commit", err)
	}
	return nil
}

func (s *Store) Close() { s.pool.Close() }

// lookupID reports ErrNotFound for ids that cannot name a row, since every key column is a uuid.
func lookupID(entity, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", entity, id, models.ErrNotFound)
	}
	return nil
}

// mapErr turns driver errors into the models taxonomy.
func mapErr(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, models.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, models.ErrDuplicate)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s references a missing row: %w", entity, id, models.ErrNotFound)
		}
	}
	return models.NewStorageError(op, err)
}
