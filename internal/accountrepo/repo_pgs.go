// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const accountColumns = `id, owner, COALESCE(bank_id, ''), type, status, balance, version, pin_hash, created_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.BankID,
		&a.Type,
		&a.Status,
		&a.Balance,
		&a.Version,
		&a.PinHash,
		&a.CreatedAt,
	)

	return a, err
}

func storageErr(op string, err error) error {
	return errors.WithStack(domain.NewStorageError(op, err))
}

const createQuery = `
INSERT INTO
    accounts (owner, bank_id, type, pin_hash)
VALUES
    ($1, NULLIF($2, ''), $3, $4)
RETURNING ` + accountColumns

// Create opens an active account with a zero balance and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.Owner, arg.BankID, arg.Type, arg.PinHash)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, owner=%v, bank=%v, type=%v)", arg.Owner, arg.BankID, arg.Type)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_bank_id_fkey":
				return a, domain.ErrBankNotFound
			case "accounts_type_check":
				return a, fmt.Errorf("%w: unsupported account type %q", domain.ErrValidation, arg.Type)
			}
		}

		return a, storageErr("create account", err)
	}

	return a, nil
}

const getQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	return r.get(ctx, getQuery, id)
}

const getForUpdateQuery = getQuery + `FOR UPDATE`

// GetForUpdate returns the account with the given id and locks its row until the
// surrounding transaction ends.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id int64) (domain.Account, error) {
	return r.get(ctx, getForUpdateQuery, id)
}

func (r *RepoPGS) get(ctx context.Context, query string, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Int64("account_id", id).Send()

		return a, storageErr("get account", err)
	}

	return a, nil
}

// numericOutOfRange is raised when balance + delta leaves the bigint range.
const numericOutOfRange pq.ErrorCode = "22003"

const compareAndApplyQuery = `
UPDATE accounts
SET
    balance = balance + $1,
    status  = COALESCE($2, status),
    version = version + 1
WHERE id = $3 AND version = $4
RETURNING ` + accountColumns

// CompareAndApply adds arg.Delta to the balance and optionally changes the status, provided
// the stored version still equals arg.ExpectedVersion.
func (r *RepoPGS) CompareAndApply(ctx context.Context, arg domain.CompareAndApplyParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var status sql.NullString
	if arg.NewStatus != nil {
		status = sql.NullString{String: string(*arg.NewStatus), Valid: true}
	}

	row := r.db.QueryRowContext(ctx, compareAndApplyQuery, arg.Delta, status, arg.ID, arg.ExpectedVersion)

	a, err := scanAccount(row)
	if err == nil {
		return a, nil
	}

	if err == sql.ErrNoRows {
		// Either the row is gone or someone else bumped the version.
		if _, getErr := r.Get(ctx, arg.ID); getErr != nil {
			return a, getErr
		}

		return a, fmt.Errorf("%w: account %d is no longer at version %d",
			domain.ErrConcurrencyConflict, arg.ID, arg.ExpectedVersion)
	}

	if pqErr, ok := err.(*pq.Error); ok {
		switch {
		case pqErr.Constraint == "accounts_balance_check":
			return a, domain.ErrInsufficientFunds
		case pqErr.Code == numericOutOfRange:
			return a, fmt.Errorf("%w: balance of account %d would overflow", domain.ErrValidation, arg.ID)
		}
	}

	l.Error().Err(err).Msgf("CompareAndApply(ctx, %+v)", arg)

	return a, storageErr("compare and apply", err)
}

const addStatusChangeQuery = `
INSERT INTO
    account_status_changes (account_id, from_status, to_status, actor, created_at)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, account_id, from_status, to_status, actor, created_at
`

// AddStatusChange records a status transition of the account.
func (r *RepoPGS) AddStatusChange(ctx context.Context, arg domain.AddStatusChangeParams) (domain.StatusChange, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, addStatusChangeQuery,
		arg.AccountID, arg.FromStatus, arg.ToStatus, arg.Actor, arg.CreatedAt)

	var c domain.StatusChange

	err := row.Scan(&c.ID, &c.AccountID, &c.FromStatus, &c.ToStatus, &c.Actor, &c.CreatedAt)
	if err != nil {
		l.Error().Err(err).Msgf("AddStatusChange(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "account_status_changes_account_id_fkey" {
			return c, domain.ErrAccountNotFound
		}

		return c, storageErr("add status change", err)
	}

	return c, nil
}

const listStatusChangesQuery = `
SELECT id, account_id, from_status, to_status, actor, created_at
FROM account_status_changes
WHERE account_id = $1
ORDER BY id
`

// ListStatusChanges returns the status audit trail of the account, oldest first.
func (r *RepoPGS) ListStatusChanges(ctx context.Context, accountID int64) ([]domain.StatusChange, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listStatusChangesQuery, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, storageErr("list status changes", err)
	}
	defer rows.Close()

	items := []domain.StatusChange{}

	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(&c.ID, &c.AccountID, &c.FromStatus, &c.ToStatus, &c.Actor, &c.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, storageErr("list status changes", err)
		}

		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, storageErr("list status changes", err)
	}

	return items, nil
}

const resolveOwnerQuery = `
SELECT id
FROM accounts
WHERE owner = $1 AND status <> 'closed'
ORDER BY id
LIMIT 2
`

// Resolve returns the account ID for an account number or for the username of an owner
// that has exactly one open account.
func (r *RepoPGS) Resolve(ctx context.Context, identifier string) (int64, error) {
	l := zerolog.Ctx(ctx)

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		a, err := r.Get(ctx, id)
		return a.ID, err
	}

	rows, err := r.db.QueryContext(ctx, resolveOwnerQuery, identifier)
	if err != nil {
		l.Error().Err(err).Send()
		return 0, storageErr("resolve account", err)
	}
	defer rows.Close()

	var found []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			l.Error().Err(err).Send()
			return 0, storageErr("resolve account", err)
		}

		found = append(found, id)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return 0, storageErr("resolve account", err)
	}

	switch len(found) {
	case 0:
		return 0, domain.ErrAccountNotFound
	case 1:
		return found[0], nil
	}

	return 0, fmt.Errorf("%w: %q owns several accounts, use an account number", domain.ErrValidation, identifier)
}
