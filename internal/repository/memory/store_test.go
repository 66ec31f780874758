package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

var _ repo.Store = (*Store)(nil)

func TestAdjustBalance_VersionCheck(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a, err := s.Repos().Accounts.Create(ctx, models.Account{Name: "Current", Balance: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.Zero(t, a.Version)

	a, err = s.Repos().Accounts.AdjustBalance(ctx, a.ID, decimal.NewFromInt(-40), 0)
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(60)))
	assert.EqualValues(t, 1, a.Version)

	_, err = s.Repos().Accounts.AdjustBalance(ctx, a.ID, decimal.NewFromInt(1), 0)
	assert.ErrorIs(t, err, models.ErrConcurrencyConflict)

	_, err = s.Repos().Accounts.AdjustBalance(ctx, "missing", decimal.NewFromInt(1), 0)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a, err := s.Repos().Accounts.Create(ctx, models.Account{Name: "Current", Balance: decimal.NewFromInt(100)})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(r repo.Repositories) error {
		if _, err := r.Accounts.AdjustBalance(ctx, a.ID, decimal.NewFromInt(-30), 0); err != nil {
			return err
		}
		if _, err := r.Transactions.Create(ctx, models.Transaction{AccountID: a.ID, Amount: decimal.NewFromInt(30)}); err != nil {
			return err
		}
		if _, err := r.TopUpRules.Create(ctx, models.TopUpRule{AccountID: a.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Repos().Accounts.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))
	assert.Zero(t, got.Version)

	txs, _ := s.Repos().Transactions.List(ctx, a.ID)
	assert.Empty(t, txs)
	rules, _ := s.Repos().TopUpRules.List(ctx, a.ID)
	assert.Empty(t, rules)
}

func TestWithinTx_Commits(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a, _ := s.Repos().Accounts.Create(ctx, models.Account{Name: "Current", Balance: decimal.NewFromInt(10)})

	err := s.WithinTx(ctx, func(r repo.Repositories) error {
		_, err := r.Accounts.AdjustBalance(ctx, a.ID, decimal.NewFromInt(5), 0)
		return err
	})
	require.NoError(t, err)

	got, _ := s.Repos().Accounts.Get(ctx, a.ID)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(15)))
}

func TestWithinTx_StagedWritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a, _ := s.Repos().Accounts.Create(ctx, models.Account{Name: "Current", Balance: decimal.NewFromInt(100)})

	err := s.WithinTx(ctx, func(r repo.Repositories) error {
		if _, err := r.Accounts.AdjustBalance(ctx, a.ID, decimal.NewFromInt(-30), 0); err != nil {
			return err
		}
		inside, err := r.Accounts.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, inside.Balance.Equal(decimal.NewFromInt(70)))

		// a second adjustment in the same unit builds on the staged one
		if _, err := r.Accounts.AdjustBalance(ctx, a.ID, decimal.NewFromInt(-10), 1); err != nil {
			return err
		}
		if _, err := r.TopUpEvents.Create(ctx, models.TopUpEvent{AccountID: a.ID}); err != nil {
			return err
		}

		outside, err := s.Repos().Accounts.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, outside.Balance.Equal(decimal.NewFromInt(100)))
		evs, _ := s.Repos().TopUpEvents.List(ctx, a.ID)
		assert.Empty(t, evs)
		return nil
	})
	require.NoError(t, err)

	got, _ := s.Repos().Accounts.Get(ctx, a.ID)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(60)))
	assert.EqualValues(t, 2, got.Version)
	evs, _ := s.Repos().TopUpEvents.List(ctx, a.ID)
	assert.Len(t, evs, 1)
}

func TestWithinTx_CommitRejectsMovedVersion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a, _ := s.Repos().Accounts.Create(ctx, models.Account{Name: "Current", Balance: decimal.NewFromInt(100)})

	err := s.WithinTx(ctx, func(r repo.Repositories) error {
		if _, err := r.Accounts.AdjustBalance(ctx, a.ID, decimal.NewFromInt(-30), 0); err != nil {
			return err
		}
		// a write outside the unit moves the version before commit
		_, err := s.Repos().Accounts.AdjustBalance(ctx, a.ID, decimal.NewFromInt(5), 0)
		return err
	})
	require.ErrorIs(t, err, models.ErrConcurrencyConflict)

	got, _ := s.Repos().Accounts.Get(ctx, a.ID)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(105)))
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r := s.Repos()
	a, _ := r.Accounts.Create(ctx, models.Account{Name: "A"})
	b, _ := r.Accounts.Create(ctx, models.Account{Name: "B"})

	first, _ := r.TopUpRules.Create(ctx, models.TopUpRule{AccountID: a.ID, Enabled: true})
	second, _ := r.TopUpRules.Create(ctx, models.TopUpRule{AccountID: a.ID, Enabled: true})
	_, _ = r.TopUpRules.Create(ctx, models.TopUpRule{AccountID: b.ID, Enabled: true})

	rules, err := r.TopUpRules.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, first.ID, rules[0].ID)
	assert.Equal(t, second.ID, rules[1].ID)

	t1, _ := r.Transactions.Create(ctx, models.Transaction{AccountID: a.ID, Merchant: "one"})
	t2, _ := r.Transactions.Create(ctx, models.Transaction{AccountID: a.ID, Merchant: "two"})
	txs, _ := r.Transactions.List(ctx, a.ID)
	require.Len(t, txs, 2)
	assert.Equal(t, t2.ID, txs[0].ID)
	assert.Equal(t, t1.ID, txs[1].ID)

	all, _ := r.TopUpRules.List(ctx, "")
	assert.Len(t, all, 3)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Repos().Users.Create(ctx, models.User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = s.Repos().Users.Create(ctx, models.User{Name: "Ada 2", Email: "ada@example.com"})
	assert.ErrorIs(t, err, models.ErrDuplicate)

	u, err := s.Repos().Users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)

	_, err = s.Repos().Users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSetEnabled(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	rule, _ := s.Repos().TopUpRules.Create(ctx, models.TopUpRule{AccountID: "a", Enabled: true})

	got, err := s.Repos().TopUpRules.SetEnabled(ctx, rule.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	_, err = s.Repos().TopUpRules.SetEnabled(ctx, "missing", true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
