// Package ledgerstore defines the storage contract shared by the Postgres and in-memory stores.
package ledgerstore

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Queries provides the account and ledger operations available inside a unit of work.
type Queries interface {
	// GetAccountForUpdate returns the account and, where the store supports it, locks its row
	// until the unit of work ends.
	GetAccountForUpdate(ctx context.Context, id int64) (domain.Account, error)
	// CompareAndApply is the sole account mutation path. It fails with
	// domain.ErrConcurrencyConflict when the stored version differs from the expected one.
	CompareAndApply(ctx context.Context, arg domain.CompareAndApplyParams) (domain.Account, error)
	AppendEntry(ctx context.Context, arg domain.AppendEntryParams) (domain.LedgerEntry, error)
	AddStatusChange(ctx context.Context, arg domain.AddStatusChangeParams) (domain.StatusChange, error)
}

// Store provides lock-free reads and atomic units of work over accounts and ledger entries.
//
//go:generate mockgen -source store.go -destination store_mock.go -package ledgerstore
type Store interface {
	// ExecTx runs fn within a single unit of work. Everything fn did is committed when it
	// returns nil and rolled back otherwise; fn's error is returned unchanged.
	ExecTx(ctx context.Context, fn func(q Queries) error) error

	CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	GetAccount(ctx context.Context, id int64) (domain.Account, error)
	ListEntries(ctx context.Context, arg domain.HistoryParams) ([]domain.LedgerEntry, error)
	// SumEntries returns the sum of the account's deltas and the number of entries.
	SumEntries(ctx context.Context, accountID int64) (int64, int64, error)
	// ListStatusChanges returns the account's status audit trail, oldest first.
	ListStatusChanges(ctx context.Context, accountID int64) ([]domain.StatusChange, error)
}
