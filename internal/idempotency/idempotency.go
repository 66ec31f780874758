// Package idempotency remembers which transaction an Idempotency-Key produced.
package idempotency

import (
	"context"
	"sync"
)

// Store maps (account, key) to the id of the transaction first recorded under it.
type Store interface {
	Lookup(ctx context.Context, accountID, key string) (txID string, found bool, err error)
	Remember(ctx context.Context, accountID, key, txID string) error
}

func scoped(accountID, key string) string { return "idem:" + accountID + ":" + key }

// Memory is a process-local Store.
type Memory struct {
	m sync.Map
}

func NewMemory() *Memory { return &Memory{} }

func (s *Memory) Lookup(_ context.Context, accountID, key string) (string, bool, error) {
	v, ok := s.m.Load(scoped(accountID, key))
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *Memory) Remember(_ context.Context, accountID, key, txID string) error {
	s.m.LoadOrStore(scoped(accountID, key), txID)
	return nil
}
