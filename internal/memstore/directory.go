package memstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// AccountDirectory resolves account numbers and usernames against a Store.
type AccountDirectory struct {
	store *Store
}

// NewAccountDirectory returns an AccountDirectory over s.
func NewAccountDirectory(s *Store) *AccountDirectory {
	return &AccountDirectory{store: s}
}

// Resolve returns the account ID for an account number or for the username of an owner
// that has exactly one open account.
func (d *AccountDirectory) Resolve(ctx context.Context, identifier string) (int64, error) {
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		if _, err := d.store.GetAccount(ctx, id); err != nil {
			return 0, err
		}

		return id, nil
	}

	d.store.mu.RLock()
	defer d.store.mu.RUnlock()

	var found []int64

	for id, a := range d.store.accounts {
		if a.Owner == identifier && a.Status != domain.StatusClosed {
			found = append(found, id)
		}
	}

	switch len(found) {
	case 0:
		return 0, domain.ErrAccountNotFound
	case 1:
		return found[0], nil
	}

	return 0, fmt.Errorf("%w: %q owns %d accounts, use an account number", domain.ErrValidation, identifier, len(found))
}

// BankDirectory resolves bank names from a fixed in-memory registry.
type BankDirectory struct {
	banks map[string]string
}

// NewBankDirectory returns a BankDirectory holding the given name to ID pairs.
func NewBankDirectory(banks map[string]string) *BankDirectory {
	d := &BankDirectory{banks: make(map[string]string, len(banks))}
	for name, id := range banks {
		d.banks[strings.ToLower(name)] = id
	}

	return d
}

// Resolve returns the ID of the bank called bankName, ignoring case.
func (d *BankDirectory) Resolve(ctx context.Context, bankName string) (string, error) {
	id, ok := d.banks[strings.ToLower(bankName)]
	if !ok {
		return "", domain.ErrBankNotFound
	}

	return id, nil
}
