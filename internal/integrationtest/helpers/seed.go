// Package helpers provides seeding helpers for integration tests.
package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/entryrepo"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/google/uuid"
)

// TestPin is the transaction PIN of every seeded account.
const TestPin = "123456"

// SeedBank inserts a bank inside a test transaction and returns its id and name.
func SeedBank(t *testing.T, tx dbpkg.SQLInterface) (string, string) {
	t.Helper()

	id, name := randompkg.String(8), randompkg.BankName()

	if _, err := tx.ExecContext(context.Background(),
		`INSERT INTO banks (id, name) VALUES ($1, $2)`, id, name); err != nil {
		t.Fatalf("inserting bank %v returned error: %v", name, err)
	}

	return id, name
}

// SeedAccount opens an account for owner inside a test transaction.
func SeedAccount(t *testing.T, tx dbpkg.SQLInterface, owner, bankID string) domain.Account {
	t.Helper()

	pinHash, err := passpkg.Hash(TestPin)
	if err != nil {
		t.Fatalf("passpkg.Hash(%v) returned error: %v", TestPin, err)
	}

	arg := domain.CreateAccountParams{
		Owner:   owner,
		BankID:  bankID,
		Type:    randompkg.AccountType(),
		PinHash: pinHash,
	}

	account, err := accountrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return account
}

// SeedFundedAccount opens an account and deposits amount into it through a ledger entry,
// keeping balance and entries consistent.
func SeedFundedAccount(t *testing.T, tx dbpkg.SQLInterface, owner string, amount int64) domain.Account {
	t.Helper()

	ctx := context.Background()
	account := SeedAccount(t, tx, owner, "")

	if amount == 0 {
		return account
	}

	_, err := entryrepo.NewRepoPGS(tx).Append(ctx, domain.AppendEntryParams{
		TransactionID: uuid.New(),
		AccountID:     account.ID,
		Delta:         amount,
		Description:   domain.DescriptionDeposit,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("entryRepo.Append returned error: %v", err)
	}

	account, err = accountrepo.NewRepoPGS(tx).CompareAndApply(ctx, domain.CompareAndApplyParams{
		ID:              account.ID,
		ExpectedVersion: account.Version,
		Delta:           amount,
	})
	if err != nil {
		t.Fatalf("accountRepo.CompareAndApply returned error: %v", err)
	}

	return account
}
