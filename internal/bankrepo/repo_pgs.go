// Package bankrepo resolves banks from the read-only banks table.
package bankrepo

import (
	"context"
	"database/sql"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates bank repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns bank RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const resolveQuery = `
SELECT id
FROM banks
WHERE lower(name) = lower($1)
`

// Resolve returns the ID of the bank with the given name.
func (r *RepoPGS) Resolve(ctx context.Context, name string) (string, error) {
	l := zerolog.Ctx(ctx)

	var id string

	err := r.db.QueryRowContext(ctx, resolveQuery, name).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrBankNotFound
		}

		l.Error().Err(err).Str("bank", name).Send()

		return "", errors.WithStack(domain.NewStorageError("resolve bank", err))
	}

	return id, nil
}
