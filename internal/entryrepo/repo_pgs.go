// Package entryrepo manages repository layer of ledger entries.
//
// Entries are append-only: the package never updates or deletes a row.
package entryrepo

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates entry repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const entryColumns = `seq, transaction_id, account_id, delta, counterparty_id, description, created_at`

func scanEntry(row interface{ Scan(...any) error }) (domain.LedgerEntry, error) {
	var e domain.LedgerEntry

	err := row.Scan(
		&e.Seq,
		&e.TransactionID,
		&e.AccountID,
		&e.Delta,
		&e.CounterpartyID,
		&e.Description,
		&e.CreatedAt,
	)

	e.CreatedAt = e.CreatedAt.UTC()

	return e, err
}

const appendQuery = `
INSERT INTO
    ledger_entries (transaction_id, account_id, delta, counterparty_id, description, created_at)
VALUES
    ($1, $2, $3, $4, $5, $6)
RETURNING ` + entryColumns

// Append writes a new entry and returns it with its assigned sequence number.
func (r *RepoPGS) Append(ctx context.Context, arg domain.AppendEntryParams) (domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, appendQuery,
		arg.TransactionID,
		arg.AccountID,
		arg.Delta,
		arg.CounterpartyID,
		arg.Description,
		arg.CreatedAt,
	)

	e, err := scanEntry(row)
	if err != nil {
		l.Error().Err(err).Msgf("Append(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "ledger_entries_account_id_fkey", "ledger_entries_counterparty_id_fkey":
				return e, domain.ErrAccountNotFound
			case "ledger_entries_delta_check":
				return e, domain.ErrValidation
			}
		}

		return e, errors.WithStack(domain.NewStorageError("append entry", err))
	}

	return e, nil
}

const listQuery = `
SELECT ` + entryColumns + `
FROM ledger_entries
WHERE account_id = $1
    AND seq > $2
    AND ($3::timestamptz IS NULL OR created_at >= $3)
    AND ($4::timestamptz IS NULL OR created_at < $4)
ORDER BY seq
LIMIT NULLIF($5, 0)
`

// List returns at most arg.Limit entries of the account with a sequence number greater
// than arg.AfterSeq, ordered by sequence number.
func (r *RepoPGS) List(ctx context.Context, arg domain.HistoryParams) ([]domain.LedgerEntry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery,
		arg.AccountID,
		arg.AfterSeq,
		pq.NullTime{Time: arg.From, Valid: !arg.From.IsZero()},
		pq.NullTime{Time: arg.To, Valid: !arg.To.IsZero()},
		arg.Limit,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errors.WithStack(domain.NewStorageError("list entries", err))
	}
	defer rows.Close()

	items := []domain.LedgerEntry{}

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errors.WithStack(domain.NewStorageError("list entries", err))
		}

		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errors.WithStack(domain.NewStorageError("list entries", err))
	}

	return items, nil
}

const sumQuery = `
SELECT COALESCE(SUM(delta), 0)::bigint, COUNT(*)
FROM ledger_entries
WHERE account_id = $1
`

// Sum returns the sum of the account's deltas and the number of its entries.
func (r *RepoPGS) Sum(ctx context.Context, accountID int64) (int64, int64, error) {
	l := zerolog.Ctx(ctx)

	var sum, count int64

	if err := r.db.QueryRowContext(ctx, sumQuery, accountID).Scan(&sum, &count); err != nil {
		l.Error().Err(err).Send()
		return 0, 0, errors.WithStack(domain.NewStorageError("sum entries", err))
	}

	return sum, count, nil
}
