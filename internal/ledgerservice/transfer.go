package ledgerservice

import (
	"context"
	"fmt"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Transfer moves arg.Amount from one account to another as a single double-entry transaction.
//
// Checks run in a fixed order: self-transfer, amount, existence, status, funds. Status and funds
// are checked again under both locks before anything is written.
func (s *Service) Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransferTxResult

	if arg.FromAccountID == arg.ToAccountID {
		return result, rejected(ctx, "transfer",
			fmt.Errorf("%w: account %d", domain.ErrSelfTransfer, arg.FromAccountID))
	}

	if err := checkAmount(arg.Amount); err != nil {
		return result, rejected(ctx, "transfer", err)
	}

	from, err := s.store.GetAccount(ctx, arg.FromAccountID)
	if err != nil {
		return result, rejected(ctx, "transfer", err)
	}

	to, err := s.store.GetAccount(ctx, arg.ToAccountID)
	if err != nil {
		return result, rejected(ctx, "transfer", err)
	}

	if err := validTransfer(from, to, arg.Amount); err != nil {
		return result, rejected(ctx, "transfer", err)
	}

	release, err := s.locks.Acquire(ctx, arg.FromAccountID, arg.ToAccountID)
	if err != nil {
		return result, rejected(ctx, "transfer", err)
	}
	defer release()

	txID := uuid.New()
	now := s.timestamp()

	err = s.store.ExecTx(ctx, func(q ledgerstore.Queries) error {
		// Row locks follow the same ascending order as the lock manager.
		first, second := arg.FromAccountID, arg.ToAccountID
		if first > second {
			first, second = second, first
		}

		locked := make(map[int64]domain.Account, 2)

		for _, id := range []int64{first, second} {
			a, err := q.GetAccountForUpdate(ctx, id)
			if err != nil {
				return err
			}

			locked[id] = a
		}

		from, to := locked[arg.FromAccountID], locked[arg.ToAccountID]

		if err := validTransfer(from, to, arg.Amount); err != nil {
			return err
		}

		var err error

		result.FromAccount, err = q.CompareAndApply(ctx, domain.CompareAndApplyParams{
			ID:              from.ID,
			ExpectedVersion: from.Version,
			Delta:           -arg.Amount,
		})
		if err != nil {
			return err
		}

		result.ToAccount, err = q.CompareAndApply(ctx, domain.CompareAndApplyParams{
			ID:              to.ID,
			ExpectedVersion: to.Version,
			Delta:           arg.Amount,
		})
		if err != nil {
			return err
		}

		result.FromEntry, err = q.AppendEntry(ctx, domain.AppendEntryParams{
			TransactionID:  txID,
			AccountID:      from.ID,
			Delta:          -arg.Amount,
			CounterpartyID: &to.ID,
			Description:    arg.Description,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		result.ToEntry, err = q.AppendEntry(ctx, domain.AppendEntryParams{
			TransactionID:  txID,
			AccountID:      to.ID,
			Delta:          arg.Amount,
			CounterpartyID: &from.ID,
			Description:    arg.Description,
			CreatedAt:      now,
		})

		return err
	})
	if err != nil {
		return domain.TransferTxResult{}, rejected(ctx, "transfer", err)
	}

	result.TransactionID = txID

	l.Info().
		Str("transaction_id", txID.String()).
		Int64("from_account_id", arg.FromAccountID).
		Int64("to_account_id", arg.ToAccountID).
		Int64("amount", arg.Amount).
		Msg("transfer committed")

	s.publish(ctx, domain.EventTransactionCompleted, txID.String(), domain.TransactionCompleted{
		TransactionID: txID,
		Kind:          domain.KindTransfer,
		Entries:       []domain.LedgerEntry{result.FromEntry, result.ToEntry},
		OccurredAt:    now,
	})

	return result, nil
}

func validTransfer(from, to domain.Account, amount int64) error {
	if err := checkActive(from, "sender"); err != nil {
		return err
	}

	if err := checkActive(to, "receiver"); err != nil {
		return err
	}

	if err := checkFunds(from, amount); err != nil {
		return err
	}

	return checkCredit(to, amount)
}

// TransferTo resolves the recipient through the account and bank directories and then
// performs Transfer.
func (s *Service) TransferTo(ctx context.Context, arg domain.TransferToParams) (domain.TransferTxResult, error) {
	if arg.To.Identifier == "" {
		return domain.TransferTxResult{}, rejected(ctx, "transfer",
			fmt.Errorf("%w: recipient is required", domain.ErrValidation))
	}

	toID, err := s.accounts.Resolve(ctx, arg.To.Identifier)
	if err != nil {
		return domain.TransferTxResult{}, rejected(ctx, "transfer", err)
	}

	if arg.To.BankName != "" {
		bankID, err := s.banks.Resolve(ctx, arg.To.BankName)
		if err != nil {
			return domain.TransferTxResult{}, rejected(ctx, "transfer", err)
		}

		to, err := s.store.GetAccount(ctx, toID)
		if err != nil {
			return domain.TransferTxResult{}, rejected(ctx, "transfer", err)
		}

		if to.BankID != bankID {
			return domain.TransferTxResult{}, rejected(ctx, "transfer",
				fmt.Errorf("%w: %q at %q", domain.ErrAccountNotFound, arg.To.Identifier, arg.To.BankName))
		}
	}

	return s.Transfer(ctx, domain.TransferParams{
		FromAccountID: arg.FromAccountID,
		ToAccountID:   toID,
		Amount:        arg.Amount,
		Description:   arg.Description,
	})
}

// Deposit credits amount to the account.
func (s *Service) Deposit(ctx context.Context, id, amount int64) (domain.EntryTxResult, error) {
	return s.applyEntry(ctx, domain.KindDeposit, id, amount, domain.DescriptionDeposit)
}

// Withdraw debits amount from the account.
func (s *Service) Withdraw(ctx context.Context, id, amount int64) (domain.EntryTxResult, error) {
	return s.applyEntry(ctx, domain.KindWithdrawal, id, amount, domain.DescriptionWithdrawal)
}

// applyEntry writes a single-entry transaction. Withdrawals are written with a negative delta.
func (s *Service) applyEntry(ctx context.Context, kind string, id, amount int64, description string) (domain.EntryTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.EntryTxResult

	if err := checkAmount(amount); err != nil {
		return result, rejected(ctx, kind, err)
	}

	delta := amount
	if kind == domain.KindWithdrawal {
		delta = -amount
	}

	valid := func(a domain.Account) error {
		if err := checkActive(a, "account"); err != nil {
			return err
		}

		if delta < 0 {
			return checkFunds(a, amount)
		}

		return checkCredit(a, amount)
	}

	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return result, rejected(ctx, kind, err)
	}

	if err := valid(a); err != nil {
		return result, rejected(ctx, kind, err)
	}

	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return result, rejected(ctx, kind, err)
	}
	defer release()

	txID := uuid.New()
	now := s.timestamp()

	err = s.store.ExecTx(ctx, func(q ledgerstore.Queries) error {
		a, err := q.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := valid(a); err != nil {
			return err
		}

		result.Account, err = q.CompareAndApply(ctx, domain.CompareAndApplyParams{
			ID:              id,
			ExpectedVersion: a.Version,
			Delta:           delta,
		})
		if err != nil {
			return err
		}

		result.Entry, err = q.AppendEntry(ctx, domain.AppendEntryParams{
			TransactionID: txID,
			AccountID:     id,
			Delta:         delta,
			Description:   description,
			CreatedAt:     now,
		})

		return err
	})
	if err != nil {
		return domain.EntryTxResult{}, rejected(ctx, kind, err)
	}

	result.TransactionID = txID

	l.Info().
		Str("transaction_id", txID.String()).
		Str("kind", kind).
		Int64("account_id", id).
		Int64("delta", delta).
		Msg("transaction committed")

	s.publish(ctx, domain.EventTransactionCompleted, txID.String(), domain.TransactionCompleted{
		TransactionID: txID,
		Kind:          kind,
		Entries:       []domain.LedgerEntry{result.Entry},
		OccurredAt:    now,
	})

	return result, nil
}
