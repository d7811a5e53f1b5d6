package ledgerservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/rs/zerolog"
)

// Open opens an active account with a zero balance.
func (s *Service) Open(ctx context.Context, arg domain.OpenAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	arg.Owner = strings.TrimSpace(arg.Owner)
	if arg.Owner == "" {
		return domain.Account{}, rejected(ctx, "open", fmt.Errorf("%w: owner is required", domain.ErrValidation))
	}

	if !arg.Type.Valid() {
		return domain.Account{}, rejected(ctx, "open",
			fmt.Errorf("%w: unsupported account type %q", domain.ErrValidation, arg.Type))
	}

	if !domain.ValidPin(arg.Pin) {
		return domain.Account{}, rejected(ctx, "open",
			fmt.Errorf("%w: pin must be %d to %d digits", domain.ErrValidation, domain.MinPinLen, domain.MaxPinLen))
	}

	var bankID string

	if arg.BankName != "" {
		id, err := s.banks.Resolve(ctx, arg.BankName)
		if err != nil {
			return domain.Account{}, rejected(ctx, "open", err)
		}

		bankID = id
	}

	pinHash, err := passpkg.Hash(arg.Pin)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, err
	}

	a, err := s.store.CreateAccount(ctx, domain.CreateAccountParams{
		Owner:   arg.Owner,
		BankID:  bankID,
		Type:    arg.Type,
		PinHash: pinHash,
	})
	if err != nil {
		return a, rejected(ctx, "open", err)
	}

	l.Info().Int64("account_id", a.ID).Str("owner", a.Owner).Str("type", string(a.Type)).Msg("account opened")

	return a, nil
}

// Get returns the account with the given id without taking its lock.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// Freeze blocks all money movement on an active account.
func (s *Service) Freeze(ctx context.Context, id int64, actor string) (domain.Account, error) {
	return s.setStatus(ctx, id, domain.StatusFrozen, actor)
}

// Unfreeze reactivates a frozen account.
func (s *Service) Unfreeze(ctx context.Context, id int64, actor string) (domain.Account, error) {
	return s.setStatus(ctx, id, domain.StatusActive, actor)
}

// Suspend administratively blocks an active account.
func (s *Service) Suspend(ctx context.Context, id int64, actor string) (domain.Account, error) {
	return s.setStatus(ctx, id, domain.StatusSuspended, actor)
}

// Close moves the account to the terminal closed status. The balance is left untouched.
func (s *Service) Close(ctx context.Context, id int64, actor string) (domain.Account, error) {
	return s.setStatus(ctx, id, domain.StatusClosed, actor)
}

// setStatus applies a state machine transition and records it under the account lock.
func (s *Service) setStatus(ctx context.Context, id int64, to domain.Status, actor string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)
	op := "set status " + string(to)

	if actor == "" {
		return domain.Account{}, rejected(ctx, op, fmt.Errorf("%w: actor is required", domain.ErrValidation))
	}

	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return domain.Account{}, rejected(ctx, op, err)
	}
	defer release()

	var (
		account domain.Account
		change  domain.StatusChange
	)

	err = s.store.ExecTx(ctx, func(q ledgerstore.Queries) error {
		a, err := q.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if !a.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: account %d cannot go from %s to %s",
				domain.ErrInvalidTransition, id, a.Status, to)
		}

		account, err = q.CompareAndApply(ctx, domain.CompareAndApplyParams{
			ID:              id,
			ExpectedVersion: a.Version,
			NewStatus:       &to,
		})
		if err != nil {
			return err
		}

		change, err = q.AddStatusChange(ctx, domain.AddStatusChangeParams{
			AccountID:  id,
			FromStatus: a.Status,
			ToStatus:   to,
			Actor:      actor,
			CreatedAt:  s.timestamp(),
		})

		return err
	})
	if err != nil {
		return domain.Account{}, rejected(ctx, op, err)
	}

	l.Info().
		Int64("account_id", id).
		Str("from", string(change.FromStatus)).
		Str("to", string(change.ToStatus)).
		Str("actor", actor).
		Msg("account status changed")

	s.publish(ctx, domain.EventStatusChanged, fmt.Sprint(id), domain.StatusChanged{
		Change:     change,
		OccurredAt: change.CreatedAt,
	})

	return account, nil
}

// StatusChanges returns the account's status audit trail, oldest first.
func (s *Service) StatusChanges(ctx context.Context, id int64) ([]domain.StatusChange, error) {
	if _, err := s.store.GetAccount(ctx, id); err != nil {
		return nil, rejected(ctx, "status changes", err)
	}

	changes, err := s.store.ListStatusChanges(ctx, id)
	if err != nil {
		return nil, rejected(ctx, "status changes", err)
	}

	return changes, nil
}

// Reconcile replays the account's entries and compares the result with its stored balance.
//
// It holds the account lock so that no in-process mutation lands between the two reads.
func (s *Service) Reconcile(ctx context.Context, id int64) (domain.Reconciliation, error) {
	l := zerolog.Ctx(ctx)

	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return domain.Reconciliation{}, rejected(ctx, "reconcile", err)
	}
	defer release()

	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return domain.Reconciliation{}, rejected(ctx, "reconcile", err)
	}

	sum, count, err := s.store.SumEntries(ctx, id)
	if err != nil {
		return domain.Reconciliation{}, rejected(ctx, "reconcile", err)
	}

	r := domain.Reconciliation{
		AccountID:       id,
		StoredBalance:   a.Balance,
		ReplayedBalance: sum,
		Entries:         count,
	}

	if !r.Consistent() {
		l.Error().
			Int64("account_id", id).
			Int64("stored", r.StoredBalance).
			Int64("replayed", r.ReplayedBalance).
			Msg("balance does not match ledger")
	}

	return r, nil
}
