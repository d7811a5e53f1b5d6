package ledgerservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/go-petr/pet-ledger/internal/lockmgr"
	"github.com/go-petr/pet-ledger/internal/memstore"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/stretchr/testify/require"
)

const (
	testBankName = "First Bank"
	testBankID   = "fb"
)

type fixture struct {
	svc   *Service
	store *memstore.Store
	locks *lockmgr.Manager
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()

	return newFixtureWithTimeout(t, time.Second, opts...)
}

func newFixtureWithTimeout(t *testing.T, lockWait time.Duration, opts ...Option) fixture {
	t.Helper()

	store := memstore.New()
	locks := lockmgr.New(lockWait)
	banks := memstore.NewBankDirectory(map[string]string{testBankName: testBankID, "Second Bank": "sb"})

	t.Cleanup(func() {
		_ = store.Close()
	})

	return fixture{
		svc:   New(store, locks, memstore.NewAccountDirectory(store), banks, opts...),
		store: store,
		locks: locks,
	}
}

// seed opens an account directly in the store and funds it through a deposit.
func (f fixture) seed(t *testing.T, balance int64) domain.Account {
	t.Helper()

	return f.seedFor(t, randompkg.Owner(), "", balance)
}

func (f fixture) seedFor(t *testing.T, owner, bankID string, balance int64) domain.Account {
	t.Helper()

	ctx := context.Background()

	a, err := f.store.CreateAccount(ctx, domain.CreateAccountParams{
		Owner:   owner,
		BankID:  bankID,
		Type:    domain.AccountTypeSaving,
		PinHash: "hash",
	})
	require.NoError(t, err)

	if balance > 0 {
		_, err = f.svc.Deposit(ctx, a.ID, balance)
		require.NoError(t, err)
	}

	a, err = f.svc.Get(ctx, a.ID)
	require.NoError(t, err)

	return a
}

// withStatus seeds an account with balance and drives it to status.
func (f fixture) withStatus(t *testing.T, status domain.Status, balance int64) domain.Account {
	t.Helper()

	ctx := context.Background()
	a := f.seed(t, balance)

	var err error

	switch status {
	case domain.StatusActive:
	case domain.StatusFrozen:
		a, err = f.svc.Freeze(ctx, a.ID, a.Owner)
	case domain.StatusSuspended:
		a, err = f.svc.Suspend(ctx, a.ID, "admin")
	case domain.StatusClosed:
		a, err = f.svc.Close(ctx, a.ID, a.Owner)
	}

	require.NoError(t, err)
	require.Equal(t, status, a.Status)

	return a
}

func (f fixture) entries(t *testing.T, id int64) []domain.LedgerEntry {
	t.Helper()

	var out []domain.LedgerEntry

	for e, err := range f.svc.History(context.Background(), domain.HistoryParams{AccountID: id}) {
		require.NoError(t, err)
		out = append(out, e)
	}

	return out
}

func (f fixture) statusChanges(t *testing.T, id int64) []domain.StatusChange {
	t.Helper()

	changes, err := f.svc.StatusChanges(context.Background(), id)
	require.NoError(t, err)

	return changes
}

// requireUnchanged asserts that the account has the same balance, version and entry count.
func (f fixture) requireUnchanged(t *testing.T, before domain.Account) {
	t.Helper()

	ctx := context.Background()

	after, err := f.svc.Get(ctx, before.ID)
	require.NoError(t, err)
	require.Equal(t, before.Balance, after.Balance)
	require.Equal(t, before.Version, after.Version)
	require.Equal(t, before.Status, after.Status)

	r, err := f.svc.Reconcile(ctx, before.ID)
	require.NoError(t, err)
	require.True(t, r.Consistent())
}

var errDiskFull = errors.New("disk full")

// faultyStore fails the failOn-th AppendEntry of every unit of work.
type faultyStore struct {
	*memstore.Store
	failOn int
}

func (s faultyStore) ExecTx(ctx context.Context, fn func(q ledgerstore.Queries) error) error {
	return s.Store.ExecTx(ctx, func(q ledgerstore.Queries) error {
		return fn(&faultyQueries{Queries: q, failOn: s.failOn})
	})
}

type faultyQueries struct {
	ledgerstore.Queries
	failOn int
	calls  int
}

func (q *faultyQueries) AppendEntry(ctx context.Context, arg domain.AppendEntryParams) (domain.LedgerEntry, error) {
	q.calls++
	if q.calls == q.failOn {
		return domain.LedgerEntry{}, domain.NewStorageError("append entry", errDiskFull)
	}

	return q.Queries.AppendEntry(ctx, arg)
}
