package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/categorizer"
	"github.com/baharkarakas/autotopup-backend/internal/events"
	"github.com/baharkarakas/autotopup-backend/internal/models"
	"github.com/baharkarakas/autotopup-backend/internal/repository/memory"
)

func TestSubmit_Categorizes(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "100")
	ctx := context.Background()

	tx, err := e.svc.Transactions.Submit(ctx, debit(a.ID, "12.40", "Uber"))
	require.NoError(t, err)
	assert.Equal(t, "Transport", tx.Category)
	assert.Equal(t, models.TxnDebit, tx.Type)
	assert.NotEmpty(t, tx.ID)
	assert.False(t, tx.Timestamp.IsZero())

	tx, err = e.svc.Transactions.Submit(ctx, SubmitRequest{AccountID: a.ID, Amount: dec("50"), Merchant: "Uber", Type: models.TxnCredit})
	require.NoError(t, err)
	assert.Equal(t, "Income", tx.Category)

	assert.True(t, e.balance(t, a.ID).Equal(dec("137.60")))
}

func TestSubmit_Validation(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "100")

	tests := []struct {
		name  string
		req   SubmitRequest
		field string
	}{
		{"zero amount", SubmitRequest{AccountID: a.ID, Amount: decimal.Zero, Merchant: "x", Type: models.TxnDebit}, "amount"},
		{"negative amount", SubmitRequest{AccountID: a.ID, Amount: dec("-1"), Merchant: "x", Type: models.TxnDebit}, "amount"},
		{"empty merchant", SubmitRequest{AccountID: a.ID, Amount: dec("1"), Merchant: "  ", Type: models.TxnDebit}, "merchant"},
		{"bad type", SubmitRequest{AccountID: a.ID, Amount: dec("1"), Merchant: "x", Type: "refund"}, "transaction_type"},
		{"sub-cent amount", SubmitRequest{AccountID: a.ID, Amount: dec("0.004"), Merchant: "x", Type: models.TxnDebit}, "amount"},
		{"three decimal places", SubmitRequest{AccountID: a.ID, Amount: dec("10.005"), Merchant: "x", Type: models.TxnDebit}, "amount"},
		{"too large", SubmitRequest{AccountID: a.ID, Amount: dec("10000000000000000"), Merchant: "x", Type: models.TxnDebit}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Transactions.Submit(context.Background(), tt.req)
			var errs validate.Errs
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}

	txs, _ := e.svc.Transactions.List(context.Background(), a.ID)
	assert.Empty(t, txs)
	assert.True(t, e.balance(t, a.ID).Equal(dec("100")))
}

func TestSubmit_TrailingZerosAreNotExtraScale(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "100")

	_, err := e.svc.Transactions.Submit(context.Background(), debit(a.ID, "10.500", "Tesco"))
	require.NoError(t, err)
	assert.True(t, e.balance(t, a.ID).Equal(dec("89.5")))
}

func TestSubmit_UnknownAccount(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Transactions.Submit(context.Background(), debit("nope", "1", "x"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubmit_ExactBalanceOverManyRandomTransactions(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "1000.00")
	e.rule(t, a.ID, "0", "500")
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	want := dec("1000.00")
	for i := 0; i < 10000; i++ {
		amount := decimal.New(rng.Int63n(100000)+1, -2) // 0.01 .. 1000.00
		typ := models.TxnDebit
		if rng.Intn(3) == 0 {
			typ = models.TxnCredit
		}
		_, err := e.svc.Transactions.Submit(ctx, SubmitRequest{AccountID: a.ID, Amount: amount, Merchant: "m", Type: typ})
		require.NoError(t, err)
		want = want.Add(typ.Delta(amount))
	}

	evs, err := e.svc.TopUps.ListEvents(ctx, a.ID)
	require.NoError(t, err)
	for _, ev := range evs {
		want = want.Add(ev.Amount)
	}

	txs, _ := e.svc.Transactions.List(ctx, a.ID)
	assert.Len(t, txs, 10000)
	got := e.balance(t, a.ID)
	assert.True(t, got.Equal(want), "balance %s, want %s", got, want)
}

func TestSubmit_ClassifierDownFallsBackToOther(t *testing.T) {
	for _, slow := range []bool{false, true} {
		e := newEnv(t, withCategorizer(failingCategorizer{slow: slow}))
		a := e.account(t, "100")

		tx, err := e.svc.Transactions.Submit(context.Background(), debit(a.ID, "30", "Uber"))
		require.NoError(t, err)
		assert.Equal(t, models.CategoryOther, tx.Category)
		assert.True(t, e.balance(t, a.ID).Equal(dec("70")))

		e.pool.Stop()
		assert.Len(t, e.recorder.OfType(events.CategorizerFallback), 1)
	}
}

func TestSubmit_StorageFailureLeavesBalanceUntouched(t *testing.T) {
	store := memory.NewStore()
	e := newEnv(t, withStore(failingRecorderStore{store}))
	e.store = store
	a := e.account(t, "100")

	_, err := e.svc.Transactions.Submit(context.Background(), debit(a.ID, "40", "Tesco"))
	var se *models.StorageError
	require.ErrorAs(t, err, &se)

	assert.True(t, e.balance(t, a.ID).Equal(dec("100")))
	got, _ := store.Repos().Accounts.Get(context.Background(), a.ID)
	assert.Zero(t, got.Version)
	txs, _ := e.svc.Transactions.List(context.Background(), a.ID)
	assert.Empty(t, txs)
}

// gatedCategorizer signals when called and answers once released.
type gatedCategorizer struct {
	entered chan struct{}
	release chan struct{}
}

func (g gatedCategorizer) Categorize(context.Context, categorizer.Input) (string, error) {
	close(g.entered)
	<-g.release
	return "Groceries", nil
}

func TestSubmit_ReadersSeeOnlyCommittedBalance(t *testing.T) {
	store := memory.NewStore()
	gate := gatedCategorizer{entered: make(chan struct{}), release: make(chan struct{})}
	e := newEnv(t, withStore(failingRecorderStore{store}), withCategorizer(gate))
	a := e.account(t, "100")

	errc := make(chan error, 1)
	go func() {
		_, err := e.svc.Transactions.Submit(context.Background(), debit(a.ID, "40", "Tesco"))
		errc <- err
	}()

	<-gate.entered
	// the debit is applied inside the unit of work but not committed yet
	assert.True(t, e.balance(t, a.ID).Equal(dec("100")))
	accts, err := e.svc.Accounts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.True(t, accts[0].Balance.Equal(dec("100")))
	close(gate.release)

	var se *models.StorageError
	require.ErrorAs(t, <-errc, &se)
	assert.True(t, e.balance(t, a.ID).Equal(dec("100")))
}

func TestSubmit_IdempotencyKey(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "100")
	ctx := context.Background()

	req := debit(a.ID, "10", "Netflix")
	req.IdempotencyKey = "abc"
	first, err := e.svc.Transactions.Submit(ctx, req)
	require.NoError(t, err)
	second, err := e.svc.Transactions.Submit(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, e.balance(t, a.ID).Equal(dec("90")))
	txs, _ := e.svc.Transactions.List(ctx, a.ID)
	assert.Len(t, txs, 1)

	// keys are per account
	b := e.account(t, "100")
	req.AccountID = b.ID
	third, err := e.svc.Transactions.Submit(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestSubmit_PublishesEvents(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "150")
	e.rule(t, a.ID, "100", "200")

	_, err := e.svc.Transactions.Submit(context.Background(), debit(a.ID, "60", "Shop"))
	require.NoError(t, err)
	e.pool.Stop()

	assert.Len(t, e.recorder.OfType(events.TransactionCreated), 1)
	require.Len(t, e.recorder.OfType(events.TopUpTriggered), 1)
	assert.Equal(t, a.ID, e.recorder.OfType(events.TopUpTriggered)[0].AccountID)
}

func TestSubmit_AuditsEveryWrite(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "150")
	e.rule(t, a.ID, "100", "200")

	_, err := e.svc.Transactions.Submit(context.Background(), debit(a.ID, "60", "Shop"))
	require.NoError(t, err)

	var actions []string
	for _, l := range e.store.AuditLogs() {
		actions = append(actions, l.EntityType+":"+l.Action)
	}
	assert.Equal(t, []string{"account:created", "topup_rule:created", "transaction:created", "topup_event:fired"}, actions)
}

func TestSubmit_ConcurrentDebitsFireOnce(t *testing.T) {
	e := newEnv(t)
	a := e.account(t, "150")
	e.rule(t, a.ID, "100", "1000")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.Transactions.Submit(ctx, debit(a.ID, "10", "Costa"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	evs, err := e.svc.TopUps.ListEvents(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.True(t, evs[0].TriggeredBalance.Equal(dec("90")))
	assert.True(t, e.balance(t, a.ID).Equal(dec("1050")))
}

func TestSubmit_TwoConcurrentDebitsJointlyCrossThreshold(t *testing.T) {
	for i := 0; i < 20; i++ {
		e := newEnv(t)
		a := e.account(t, "150")
		e.rule(t, a.ID, "100", "200")
		ctx := context.Background()

		var wg sync.WaitGroup
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.svc.Transactions.Submit(ctx, debit(a.ID, "30", "Costa"))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		evs, _ := e.svc.TopUps.ListEvents(ctx, a.ID)
		require.Len(t, evs, 1)
		assert.True(t, evs[0].TriggeredBalance.Equal(dec("90")))
		assert.True(t, e.balance(t, a.ID).Equal(dec("290")))
	}
}

func TestSubmit_AccountsRunInParallel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	accts := []models.Account{e.account(t, "0"), e.account(t, "0"), e.account(t, "0")}

	var wg sync.WaitGroup
	for _, a := range accts {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := e.svc.Transactions.Submit(ctx, SubmitRequest{AccountID: id, Amount: dec("1.01"), Merchant: "Employer", Type: models.TxnCredit})
				assert.NoError(t, err)
			}(a.ID)
		}
	}
	wg.Wait()

	for _, a := range accts {
		assert.True(t, e.balance(t, a.ID).Equal(dec("50.50")))
	}
}
