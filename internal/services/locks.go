package services

import "sync"

// accountLocks hands out one mutex per account id. Different accounts never contend.
type accountLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{m: make(map[string]*sync.Mutex)}
}

// lock blocks until the account's scope is free and returns the matching unlock.
func (l *accountLocks) lock(accountID string) func() {
	l.mu.Lock()
	m, ok := l.m[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.m[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
