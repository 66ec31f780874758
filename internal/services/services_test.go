package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/autotopup-backend/internal/auth"
	"github.com/baharkarakas/autotopup-backend/internal/categorizer"
	"github.com/baharkarakas/autotopup-backend/internal/events"
	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
	"github.com/baharkarakas/autotopup-backend/internal/repository/memory"
	"github.com/baharkarakas/autotopup-backend/internal/worker"
)

type env struct {
	svc      *Services
	store    *memory.Store
	recorder *events.Recorder
	pool     *worker.Pool
}

type option func(*Deps)

func withCategorizer(c categorizer.Categorizer) option { return func(d *Deps) { d.Categorizer = c } }
func withStore(s repo.Store) option                    { return func(d *Deps) { d.Store = s } }
func withManualMode(m string) option                   { return func(d *Deps) { d.ManualMode = m } }

func newEnv(t *testing.T, opts ...option) *env {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	rec := &events.Recorder{}
	pool := worker.NewPool(2, 4096)
	t.Cleanup(pool.Stop)

	d := Deps{
		Store:              store,
		Categorizer:        categorizer.NewEngine(categorizer.DefaultRules(categorizer.DefaultLargeAmount)),
		CategorizerTimeout: 50 * time.Millisecond,
		Emitter:            events.NewEmitter(rec, pool, log),
		Tokens:             auth.NewTokenManager("a", "r", time.Minute, time.Hour),
		Log:                log,
	}
	for _, o := range opts {
		o(&d)
	}
	return &env{svc: New(d), store: store, recorder: rec, pool: pool}
}

func (e *env) account(t *testing.T, balance string) models.Account {
	t.Helper()
	a, err := e.svc.Accounts.Create(context.Background(), CreateAccountRequest{Name: "Current Account", Balance: dec(balance)})
	require.NoError(t, err)
	return a
}

func (e *env) rule(t *testing.T, accountID, threshold, amount string) models.TopUpRule {
	t.Helper()
	r, err := e.svc.TopUps.CreateRule(context.Background(), CreateRuleRequest{
		AccountID: accountID, Threshold: dec(threshold), TopUpAmount: dec(amount),
	})
	require.NoError(t, err)
	return r
}

func (e *env) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	a, err := e.svc.Accounts.Get(context.Background(), id)
	require.NoError(t, err)
	return a.Balance
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func debit(accountID, amount, merchant string) SubmitRequest {
	return SubmitRequest{AccountID: accountID, Amount: dec(amount), Merchant: merchant, Type: models.TxnDebit}
}

// failingCategorizer never answers; slow=true waits for the deadline instead of failing fast.
type failingCategorizer struct{ slow bool }

func (f failingCategorizer) Categorize(ctx context.Context, _ categorizer.Input) (string, error) {
	if f.slow {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "", models.ErrClassifierUnavailable
}

type failingTransactions struct{ repo.Transactions }

func (failingTransactions) Create(context.Context, models.Transaction) (models.Transaction, error) {
	return models.Transaction{}, models.NewStorageError("transactions.create", errors.New("disk full"))
}

// failingRecorderStore commits nothing that records a transaction.
type failingRecorderStore struct{ *memory.Store }

func (s failingRecorderStore) WithinTx(ctx context.Context, fn func(r repo.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(r repo.Repositories) error {
		r.Transactions = failingTransactions{r.Transactions}
		return fn(r)
	})
}
