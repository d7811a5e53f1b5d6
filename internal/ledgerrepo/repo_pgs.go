// Package ledgerrepo composes the account and entry repositories into an atomic ledger store.
package ledgerrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/entryrepo"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RepoPGS implements ledgerstore.Store on Postgres.
type RepoPGS struct {
	db       dbpkg.SQLInterface
	conn     *sql.DB
	accounts *accountrepo.RepoPGS
	entries  *entryrepo.RepoPGS
}

var _ ledgerstore.Store = (*RepoPGS)(nil)

// NewRepoPGS returns ledger RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:       db,
		conn:     db,
		accounts: accountrepo.NewRepoPGS(db),
		entries:  entryrepo.NewRepoPGS(db),
	}
}

// NewTxRepoPGS returns ledger RepoPGS bound to an already open transaction.
//
// ExecTx then runs directly on that transaction and leaves commit to its owner.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db:       db,
		accounts: accountrepo.NewRepoPGS(db),
		entries:  entryrepo.NewRepoPGS(db),
	}
}

// txQueries binds the repositories to one database transaction.
type txQueries struct {
	accounts *accountrepo.RepoPGS
	entries  *entryrepo.RepoPGS
}

func newTxQueries(db dbpkg.SQLInterface) *txQueries {
	return &txQueries{
		accounts: accountrepo.NewRepoPGS(db),
		entries:  entryrepo.NewRepoPGS(db),
	}
}

func (q *txQueries) GetAccountForUpdate(ctx context.Context, id int64) (domain.Account, error) {
	return q.accounts.GetForUpdate(ctx, id)
}

func (q *txQueries) CompareAndApply(ctx context.Context, arg domain.CompareAndApplyParams) (domain.Account, error) {
	return q.accounts.CompareAndApply(ctx, arg)
}

func (q *txQueries) AppendEntry(ctx context.Context, arg domain.AppendEntryParams) (domain.LedgerEntry, error) {
	return q.entries.Append(ctx, arg)
}

func (q *txQueries) AddStatusChange(ctx context.Context, arg domain.AddStatusChangeParams) (domain.StatusChange, error) {
	return q.accounts.AddStatusChange(ctx, arg)
}

// ExecTx executes fn within a database transaction.
func (r *RepoPGS) ExecTx(ctx context.Context, fn func(q ledgerstore.Queries) error) error {
	l := zerolog.Ctx(ctx)

	if r.conn == nil {
		return fn(newTxQueries(r.db))
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errors.WithStack(domain.NewStorageError("begin tx", err))
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	if err := fn(newTxQueries(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errors.WithStack(domain.NewStorageError("commit tx", err))
	}

	return nil
}

// CreateAccount opens an account.
func (r *RepoPGS) CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	return r.accounts.Create(ctx, arg)
}

// GetAccount returns the account without locking it.
func (r *RepoPGS) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	return r.accounts.Get(ctx, id)
}

// ListEntries returns a page of the account's entries.
func (r *RepoPGS) ListEntries(ctx context.Context, arg domain.HistoryParams) ([]domain.LedgerEntry, error) {
	return r.entries.List(ctx, arg)
}

// SumEntries returns the sum of the account's deltas and the number of entries.
func (r *RepoPGS) SumEntries(ctx context.Context, accountID int64) (int64, int64, error) {
	return r.entries.Sum(ctx, accountID)
}

// ListStatusChanges returns the account's status audit trail.
func (r *RepoPGS) ListStatusChanges(ctx context.Context, accountID int64) ([]domain.StatusChange, error) {
	return r.accounts.ListStatusChanges(ctx, accountID)
}
