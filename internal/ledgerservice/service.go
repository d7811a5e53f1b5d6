// Package ledgerservice implements the transaction engine: it moves money between accounts,
// drives the account state machine and exposes the ledger history.
package ledgerservice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of entries fetched per history page.
const DefaultPageSize = 100

// Locker serializes work on accounts. Acquire takes every id or none and returns the release.
type Locker interface {
	Acquire(ctx context.Context, ids ...int64) (func(), error)
}

// AccountDirectory resolves the identifier a customer knows an account by.
type AccountDirectory interface {
	Resolve(ctx context.Context, identifier string) (int64, error)
}

// BankDirectory resolves a bank name to its ID.
type BankDirectory interface {
	Resolve(ctx context.Context, bankName string) (string, error)
}

// Publisher delivers committed ledger events.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Publisher interface {
	Publish(ctx context.Context, name, key string, event any) error
}

// Service facilitates ledger business logic.
type Service struct {
	store     ledgerstore.Store
	locks     Locker
	accounts  AccountDirectory
	banks     BankDirectory
	publisher Publisher
	pageSize  int32
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the publisher of committed events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithPageSize sets the number of entries fetched per history page.
func WithPageSize(n int32) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock overrides the time source of entry and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New returns ledger service struct to manage ledger business logic.
func New(store ledgerstore.Store, locks Locker, accounts AccountDirectory, banks BankDirectory, opts ...Option) *Service {
	s := &Service{
		store:    store,
		locks:    locks,
		accounts: accounts,
		banks:    banks,
		pageSize: DefaultPageSize,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Service) publish(ctx context.Context, name, key string, event any) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, name, key, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", name).Str("key", key).Msg("event not published")
	}
}

// rejected logs err at a level matching its kind and returns it unchanged.
func rejected(ctx context.Context, op string, err error) error {
	l := zerolog.Ctx(ctx)

	switch {
	case domain.IsRetryable(err):
		l.Warn().Err(err).Str("op", op).Msg("rejected")
	case errors.Is(err, domain.ErrStorage):
		l.Error().Stack().Err(err).Str("op", op).Msg("failed")
	default:
		l.Info().Err(err).Str("op", op).Msg("rejected")
	}

	return err
}

func checkActive(a domain.Account, side string) error {
	if !a.Status.CanTransact() {
		return fmt.Errorf("%w: %s account %d is %s", domain.ErrInvalidState, side, a.ID, a.Status)
	}

	return nil
}

func checkFunds(a domain.Account, amount int64) error {
	if a.Balance < amount {
		return fmt.Errorf("%w: account %d has %d, needs %d", domain.ErrInsufficientFunds, a.ID, a.Balance, amount)
	}

	return nil
}

func checkCredit(a domain.Account, amount int64) error {
	if a.Balance > math.MaxInt64-amount {
		return fmt.Errorf("%w: crediting %d to account %d would overflow its balance", domain.ErrValidation, amount, a.ID)
	}

	return nil
}

func checkAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %d", domain.ErrValidation, amount)
	}

	return nil
}
