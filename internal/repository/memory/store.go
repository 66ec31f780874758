// Package memory is an in-process implementation of repository.Store.
// Records are held by value and copied in and out, so callers never share state with the store.
// Writes made inside WithinTx are staged and become visible together at commit.
package memory

import (
	"context"
	"sync"

	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	users        map[string]models.User
	usersByEmail map[string]string

	accounts     map[string]models.Account
	accountOrder []string

	txns     map[string]models.Transaction
	txnOrder []string

	rules     map[string]models.TopUpRule
	ruleOrder []string

	events []models.TopUpEvent
	audit  []models.AuditLog
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]models.User),
		usersByEmail: make(map[string]string),
		accounts:     make(map[string]models.Account),
		txns:         make(map[string]models.Transaction),
		rules:        make(map[string]models.TopUpRule),
	}
}

// unit stages the writes made inside WithinTx. Nothing reaches the shared maps until commit.
// A unit is used by one goroutine only.
type unit struct {
	accounts map[string]models.Account
	users    map[string]models.User
	emails   map[string]string
	rules    map[string]models.TopUpRule

	checks []func() error
	apply  []func()
}

func newUnit() *unit {
	return &unit{
		accounts: make(map[string]models.Account),
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
		rules:    make(map[string]models.TopUpRule),
	}
}

func (u *unit) account(id string) (models.Account, bool) {
	if u == nil {
		return models.Account{}, false
	}
	a, ok := u.accounts[id]
	return a, ok
}

func (u *unit) rule(id string) (models.TopUpRule, bool) {
	if u == nil {
		return models.TopUpRule{}, false
	}
	r, ok := u.rules[id]
	return r, ok
}

// write applies a change at once when u is nil. Inside a unit it only runs check
// against committed state and stages both closures; commit runs them again under s.mu.
func (s *Store) write(u *unit, check func() error, apply func()) error {
	if u == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if check != nil {
			if err := check(); err != nil {
				return err
			}
		}
		apply()
		return nil
	}
	if check != nil {
		s.mu.RLock()
		err := check()
		s.mu.RUnlock()
		if err != nil {
			return err
		}
		u.checks = append(u.checks, check)
	}
	u.apply = append(u.apply, apply)
	return nil
}

func (s *Store) bind(u *unit) repo.Repositories {
	return repo.Repositories{
		Users:        &usersRepo{s: s, u: u},
		Accounts:     &accountsRepo{s: s, u: u},
		Transactions: &transactionsRepo{s: s, u: u},
		TopUpRules:   &rulesRepo{s: s, u: u},
		TopUpEvents:  &eventsRepo{s: s, u: u},
		AuditLogs:    &auditLogsRepo{s: s, u: u},
	}
}

func (s *Store) Repos() repo.Repositories { return s.bind(nil) }

// WithinTx runs fn against staged repositories and publishes its writes in one step under s.mu.
// Until then other readers see only committed state; a failed fn leaves no trace.
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.Repositories) error) error {
	u := newUnit()
	if err := fn(s.bind(u)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, check := range u.checks {
		if err := check(); err != nil {
			return err
		}
	}
	for _, apply := range u.apply {
		apply()
	}
	return nil
}

func (s *Store) Close() {}
