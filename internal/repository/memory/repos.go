package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/models"
)

// check and apply closures run with Store.mu held.

type usersRepo struct {
	s *Store
	u *unit
}

func (r *usersRepo) Create(_ context.Context, u models.User) (models.User, error) {
	dup := fmt.Errorf("user %s: %w", u.Email, models.ErrDuplicate)
	if r.u != nil {
		if _, taken := r.u.emails[u.Email]; taken {
			return models.User{}, dup
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := r.s.write(r.u, func() error {
		if _, taken := r.s.usersByEmail[u.Email]; taken {
			return dup
		}
		return nil
	}, func() {
		r.s.users[u.ID] = u
		r.s.usersByEmail[u.Email] = u.ID
	})
	if err != nil {
		return models.User{}, err
	}
	if r.u != nil {
		r.u.users[u.ID] = u
		r.u.emails[u.Email] = u.ID
	}
	return u, nil
}

func (r *usersRepo) GetByID(_ context.Context, id string) (models.User, error) {
	if r.u != nil {
		if u, ok := r.u.users[id]; ok {
			return u, nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if r.u != nil {
		if id, ok := r.u.emails[email]; ok {
			return r.GetByID(ctx, id)
		}
	}
	r.s.mu.RLock()
	id, ok := r.s.usersByEmail[email]
	r.s.mu.RUnlock()
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

type accountsRepo struct {
	s *Store
	u *unit
}

func (r *accountsRepo) Create(_ context.Context, a models.Account) (models.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	dup := fmt.Errorf("account %s: %w", a.ID, models.ErrDuplicate)
	if _, staged := r.u.account(a.ID); staged {
		return models.Account{}, dup
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	err := r.s.write(r.u, func() error {
		if _, exists := r.s.accounts[a.ID]; exists {
			return dup
		}
		return nil
	}, func() {
		r.s.accounts[a.ID] = a
		r.s.accountOrder = append(r.s.accountOrder, a.ID)
	})
	if err != nil {
		return models.Account{}, err
	}
	if r.u != nil {
		r.u.accounts[a.ID] = a
	}
	return a, nil
}

func (r *accountsRepo) Get(_ context.Context, id string) (models.Account, error) {
	if a, ok := r.u.account(id); ok {
		return a, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.Account{}, fmt.Errorf("account %s: %w", id, models.ErrNotFound)
	}
	return a, nil
}

func (r *accountsRepo) List(_ context.Context) ([]models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Account, 0, len(r.s.accountOrder))
	for _, id := range r.s.accountOrder {
		out = append(out, r.s.accounts[id])
	}
	return out, nil
}

func (r *accountsRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error) {
	all, _ := r.List(ctx)
	out := make([]models.Account, 0, len(all))
	for _, a := range all {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *accountsRepo) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal, expectedVersion int64) (models.Account, error) {
	conflict := func(v int64) error {
		return fmt.Errorf("account %s at version %d, expected %d: %w", id, v, expectedVersion, models.ErrConcurrencyConflict)
	}
	a, err := r.Get(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	if a.Version != expectedVersion {
		return models.Account{}, conflict(a.Version)
	}
	a.Balance = a.Balance.Add(delta)
	a.Version++
	a.UpdatedAt = time.Now().UTC()

	// staged accounts were checked when first staged
	var check func() error
	if _, staged := r.u.account(id); !staged {
		check = func() error {
			cur, ok := r.s.accounts[id]
			if !ok {
				return fmt.Errorf("account %s: %w", id, models.ErrNotFound)
			}
			if cur.Version != expectedVersion {
				return conflict(cur.Version)
			}
			return nil
		}
	}
	next := a
	if err := r.s.write(r.u, check, func() { r.s.accounts[id] = next }); err != nil {
		return models.Account{}, err
	}
	if r.u != nil {
		r.u.accounts[id] = next
	}
	return next, nil
}

type transactionsRepo struct {
	s *Store
	u *unit
}

func (r *transactionsRepo) Create(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	err := r.s.write(r.u, nil, func() {
		r.s.txns[tx.ID] = tx
		r.s.txnOrder = append(r.s.txnOrder, tx.ID)
	})
	return tx, err
}

func (r *transactionsRepo) GetByID(_ context.Context, id string) (models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tx, ok := r.s.txns[id]
	if !ok {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, models.ErrNotFound)
	}
	return tx, nil
}

func (r *transactionsRepo) List(_ context.Context, accountID string) ([]models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Transaction
	for i := len(r.s.txnOrder) - 1; i >= 0; i-- {
		tx := r.s.txns[r.s.txnOrder[i]]
		if accountID == "" || tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

type rulesRepo struct {
	s *Store
	u *unit
}

func (r *rulesRepo) Create(_ context.Context, rule models.TopUpRule) (models.TopUpRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	err := r.s.write(r.u, nil, func() {
		r.s.rules[rule.ID] = rule
		r.s.ruleOrder = append(r.s.ruleOrder, rule.ID)
	})
	if err != nil {
		return models.TopUpRule{}, err
	}
	if r.u != nil {
		r.u.rules[rule.ID] = rule
	}
	return rule, nil
}

func (r *rulesRepo) Get(_ context.Context, id string) (models.TopUpRule, error) {
	if rule, ok := r.u.rule(id); ok {
		return rule, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rule, ok := r.s.rules[id]
	if !ok {
		return models.TopUpRule{}, fmt.Errorf("topup rule %s: %w", id, models.ErrNotFound)
	}
	return rule, nil
}

func (r *rulesRepo) List(_ context.Context, accountID string) ([]models.TopUpRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.TopUpRule
	for _, id := range r.s.ruleOrder {
		rule := r.s.rules[id]
		if accountID == "" || rule.AccountID == accountID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *rulesRepo) SetEnabled(ctx context.Context, id string, enabled bool) (models.TopUpRule, error) {
	rule, err := r.Get(ctx, id)
	if err != nil {
		return models.TopUpRule{}, err
	}
	rule.Enabled = enabled

	var check func() error
	if _, staged := r.u.rule(id); !staged {
		check = func() error {
			if _, ok := r.s.rules[id]; !ok {
				return fmt.Errorf("topup rule %s: %w", id, models.ErrNotFound)
			}
			return nil
		}
	}
	err = r.s.write(r.u, check, func() {
		cur := r.s.rules[id]
		cur.Enabled = enabled
		r.s.rules[id] = cur
	})
	if err != nil {
		return models.TopUpRule{}, err
	}
	if r.u != nil {
		r.u.rules[id] = rule
	}
	return rule, nil
}

type eventsRepo struct {
	s *Store
	u *unit
}

func (r *eventsRepo) Create(_ context.Context, e models.TopUpEvent) (models.TopUpEvent, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	err := r.s.write(r.u, nil, func() { r.s.events = append(r.s.events, e) })
	return e, err
}

func (r *eventsRepo) List(_ context.Context, accountID string) ([]models.TopUpEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.TopUpEvent
	for i := len(r.s.events) - 1; i >= 0; i-- {
		if accountID == "" || r.s.events[i].AccountID == accountID {
			out = append(out, r.s.events[i])
		}
	}
	return out, nil
}

type auditLogsRepo struct {
	s *Store
	u *unit
}

func (r *auditLogsRepo) Create(_ context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return r.s.write(r.u, nil, func() { r.s.audit = append(r.s.audit, l) })
}

// AuditLogs returns a copy of every audit entry, oldest first.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}
