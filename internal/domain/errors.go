package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed input such as a non-positive amount.
	ErrValidation = errors.New("validation failed")
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrBankNotFound indicates that the bank is not found.
	ErrBankNotFound = errors.New("bank not found")
	// ErrInvalidState indicates that the account status does not allow the operation.
	ErrInvalidState = errors.New("invalid account state")
	// ErrInvalidTransition indicates a status change the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrSelfTransfer indicates a transfer whose sender and receiver are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to the same account")
	// ErrInsufficientFunds indicates that the account does not have sufficient balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConcurrencyConflict indicates lock or version contention. The caller may retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrStorage indicates an underlying persistence failure.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidOwner indicates that the user is unauthorized to operate the account.
	ErrInvalidOwner = errors.New("unauthorized owner")
	// ErrWrongPin indicates that the transaction PIN does not match.
	ErrWrongPin = errors.New("wrong pin")
)

// StorageError wraps a persistence failure together with the operation that produced it.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError returns a StorageError for op.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) hold for every StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsRetryable reports whether err is worth retrying unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
