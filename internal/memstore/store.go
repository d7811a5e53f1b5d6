// Package memstore provides an in-memory ledger store with atomic units of work.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
)

// Store keeps accounts, ledger entries and status changes in memory.
//
// Units of work stage their writes privately and publish them under the write lock on
// commit, so a failed unit of work leaves no trace.
type Store struct {
	mu            sync.RWMutex
	accounts      map[int64]domain.Account
	entries       map[int64][]domain.LedgerEntry // by account, ordered by Seq
	statusChanges []domain.StatusChange
	nextAccountID int64

	nextSeq    atomic.Int64
	nextChange atomic.Int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[int64]domain.Account),
		entries:  make(map[int64][]domain.LedgerEntry),
	}
}

var _ ledgerstore.Store = (*Store)(nil)

// CreateAccount opens an active account with a zero balance.
func (s *Store) CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAccountID++

	a := domain.Account{
		ID:        s.nextAccountID,
		Owner:     arg.Owner,
		BankID:    arg.BankID,
		Type:      arg.Type,
		Status:    domain.StatusActive,
		PinHash:   arg.PinHash,
		CreatedAt: time.Now().UTC(),
	}
	s.accounts[a.ID] = a

	return a, nil
}

// GetAccount returns the last committed state of the account.
func (s *Store) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// ListEntries returns a page of the account's committed entries.
func (s *Store) ListEntries(ctx context.Context, arg domain.HistoryParams) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[arg.AccountID]

	start := sort.Search(len(all), func(i int) bool { return all[i].Seq > arg.AfterSeq })

	items := []domain.LedgerEntry{}

	for _, e := range all[start:] {
		if arg.Limit > 0 && int32(len(items)) >= arg.Limit {
			break
		}

		if !arg.From.IsZero() && e.CreatedAt.Before(arg.From) {
			continue
		}

		if !arg.To.IsZero() && !e.CreatedAt.Before(arg.To) {
			continue
		}

		items = append(items, e)
	}

	return items, nil
}

// SumEntries returns the sum of the account's deltas and the number of entries.
func (s *Store) SumEntries(ctx context.Context, accountID int64) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for _, e := range s.entries[accountID] {
		sum += e.Delta
	}

	return sum, int64(len(s.entries[accountID])), nil
}

// ListStatusChanges returns the committed status changes of the account, oldest first.
func (s *Store) ListStatusChanges(ctx context.Context, accountID int64) ([]domain.StatusChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []domain.StatusChange{}

	for _, c := range s.statusChanges {
		if c.AccountID == accountID {
			items = append(items, c)
		}
	}

	return items, nil
}

// ExecTx runs fn within a unit of work.
func (s *Store) ExecTx(ctx context.Context, fn func(q ledgerstore.Queries) error) error {
	tx := &txQueries{
		store:    s,
		base:     make(map[int64]int64),
		accounts: make(map[int64]domain.Account),
	}

	if err := fn(tx); err != nil {
		return err
	}

	return s.commit(tx)
}

// Close releases the store. It exists so the store has the same lifecycle as a database handle.
func (s *Store) Close() error {
	return nil
}

func (s *Store) commit(tx *txQueries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, base := range tx.base {
		if s.accounts[id].Version != base {
			return fmt.Errorf("%w: account %d changed during the unit of work", domain.ErrConcurrencyConflict, id)
		}
	}

	for id, a := range tx.accounts {
		s.accounts[id] = a
	}

	for _, e := range tx.entries {
		s.insertEntry(e)
	}

	s.statusChanges = append(s.statusChanges, tx.statusChanges...)

	return nil
}

// insertEntry keeps the per-account slice ordered by Seq.
func (s *Store) insertEntry(e domain.LedgerEntry) {
	all := s.entries[e.AccountID]

	i := sort.Search(len(all), func(i int) bool { return all[i].Seq > e.Seq })

	all = append(all, domain.LedgerEntry{})
	copy(all[i+1:], all[i:])
	all[i] = e

	s.entries[e.AccountID] = all
}

type txQueries struct {
	store *Store

	base          map[int64]int64 // committed version seen when the account was first touched
	accounts      map[int64]domain.Account
	entries       []domain.LedgerEntry
	statusChanges []domain.StatusChange
}

func (q *txQueries) current(id int64) (domain.Account, error) {
	if a, ok := q.accounts[id]; ok {
		return a, nil
	}

	a, err := q.store.GetAccount(context.Background(), id)
	if err != nil {
		return a, err
	}

	q.base[id] = a.Version
	q.accounts[id] = a

	return a, nil
}

func (q *txQueries) GetAccountForUpdate(ctx context.Context, id int64) (domain.Account, error) {
	return q.current(id)
}

func (q *txQueries) CompareAndApply(ctx context.Context, arg domain.CompareAndApplyParams) (domain.Account, error) {
	a, err := q.current(arg.ID)
	if err != nil {
		return domain.Account{}, err
	}

	if a.Version != arg.ExpectedVersion {
		return domain.Account{}, fmt.Errorf("%w: account %d is at version %d, expected %d",
			domain.ErrConcurrencyConflict, a.ID, a.Version, arg.ExpectedVersion)
	}

	if arg.Delta > 0 && a.Balance > math.MaxInt64-arg.Delta {
		return domain.Account{}, fmt.Errorf("%w: balance of account %d would overflow", domain.ErrValidation, a.ID)
	}

	if a.Balance+arg.Delta < 0 {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	a.Balance += arg.Delta
	if arg.NewStatus != nil {
		a.Status = *arg.NewStatus
	}

	a.Version++
	q.accounts[a.ID] = a

	return a, nil
}

func (q *txQueries) AppendEntry(ctx context.Context, arg domain.AppendEntryParams) (domain.LedgerEntry, error) {
	if _, err := q.current(arg.AccountID); err != nil {
		return domain.LedgerEntry{}, err
	}

	e := domain.LedgerEntry{
		Seq:            q.store.nextSeq.Add(1),
		TransactionID:  arg.TransactionID,
		AccountID:      arg.AccountID,
		Delta:          arg.Delta,
		CounterpartyID: arg.CounterpartyID,
		Description:    arg.Description,
		CreatedAt:      arg.CreatedAt.UTC(),
	}
	q.entries = append(q.entries, e)

	return e, nil
}

func (q *txQueries) AddStatusChange(ctx context.Context, arg domain.AddStatusChangeParams) (domain.StatusChange, error) {
	c := domain.StatusChange{
		ID:         q.store.nextChange.Add(1),
		AccountID:  arg.AccountID,
		FromStatus: arg.FromStatus,
		ToStatus:   arg.ToStatus,
		Actor:      arg.Actor,
		CreatedAt:  arg.CreatedAt.UTC(),
	}
	q.statusChanges = append(q.statusChanges, c)

	return c, nil
}
