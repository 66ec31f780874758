package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConcurrencyConflict means a balance was written outside the per-account scope.
	ErrConcurrencyConflict   = errors.New("concurrency conflict")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrDuplicate             = errors.New("already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)

// StorageError marks a persistence failure; the write it belonged to is not committed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
