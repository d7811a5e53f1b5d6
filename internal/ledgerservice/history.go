package ledgerservice

import (
	"context"
	"fmt"
	"iter"

	"github.com/go-petr/pet-ledger/internal/domain"
)

func (s *Service) validHistory(arg domain.HistoryParams) error {
	if !arg.From.IsZero() && !arg.To.IsZero() && !arg.From.Before(arg.To) {
		return fmt.Errorf("%w: from must be before to", domain.ErrValidation)
	}

	if arg.AfterSeq < 0 || arg.Limit < 0 {
		return fmt.Errorf("%w: after_seq and limit must not be negative", domain.ErrValidation)
	}

	return nil
}

// History returns the account's entries in arg's date range ordered by sequence number.
//
// Pages are fetched lazily as the sequence is consumed. Every range over the sequence starts
// again from the first matching entry. Reads take no locks. A failure is yielded once as the
// final element.
func (s *Service) History(ctx context.Context, arg domain.HistoryParams) iter.Seq2[domain.LedgerEntry, error] {
	return func(yield func(domain.LedgerEntry, error) bool) {
		if err := s.validHistory(arg); err != nil {
			yield(domain.LedgerEntry{}, rejected(ctx, "history", err))
			return
		}

		if _, err := s.store.GetAccount(ctx, arg.AccountID); err != nil {
			yield(domain.LedgerEntry{}, rejected(ctx, "history", err))
			return
		}

		page := arg
		page.Limit = s.pageSize

		for {
			if err := ctx.Err(); err != nil {
				yield(domain.LedgerEntry{}, err)
				return
			}

			entries, err := s.store.ListEntries(ctx, page)
			if err != nil {
				yield(domain.LedgerEntry{}, rejected(ctx, "history", err))
				return
			}

			for _, e := range entries {
				if !yield(e, nil) {
					return
				}

				page.AfterSeq = e.Seq
			}

			if int32(len(entries)) < page.Limit {
				return
			}
		}
	}
}

// HistoryPage returns one page of the account's entries. A zero limit means the default page
// size; larger limits are capped to it.
func (s *Service) HistoryPage(ctx context.Context, arg domain.HistoryParams) ([]domain.LedgerEntry, error) {
	if err := s.validHistory(arg); err != nil {
		return nil, rejected(ctx, "history", err)
	}

	if arg.Limit == 0 || arg.Limit > s.pageSize {
		arg.Limit = s.pageSize
	}

	if _, err := s.store.GetAccount(ctx, arg.AccountID); err != nil {
		return nil, rejected(ctx, "history", err)
	}

	entries, err := s.store.ListEntries(ctx, arg)
	if err != nil {
		return nil, rejected(ctx, "history", err)
	}

	return entries, nil
}
