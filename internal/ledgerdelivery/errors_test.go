package ledgerdelivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/domain"
)

func TestStatusOf(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: amount must be positive", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrSelfTransfer, http.StatusBadRequest},
		{domain.ErrInsufficientFunds, http.StatusBadRequest},
		{domain.ErrAccountNotFound, http.StatusNotFound},
		{domain.ErrBankNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: sender account is closed", domain.ErrInvalidState), http.StatusConflict},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrConcurrencyConflict, http.StatusConflict},
		{domain.ErrInvalidOwner, http.StatusUnauthorized},
		{domain.ErrWrongPin, http.StatusUnauthorized},
		{domain.NewStorageError("append entry", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("StopsOnSuccess", func(t *testing.T) {
		calls := 0
		err := retry(ctx, 3, func() error {
			calls++
			if calls == 1 {
				return domain.ErrConcurrencyConflict
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 2, calls)
	})

	t.Run("GivesUp", func(t *testing.T) {
		calls := 0
		err := retry(ctx, 3, func() error {
			calls++
			return domain.ErrConcurrencyConflict
		})
		require.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		require.Equal(t, 3, calls)
	})

	t.Run("NonRetryable", func(t *testing.T) {
		calls := 0
		err := retry(ctx, 3, func() error {
			calls++
			return domain.ErrInsufficientFunds
		})
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		require.Equal(t, 1, calls)
	})

	t.Run("AtLeastOnce", func(t *testing.T) {
		calls := 0
		err := retry(ctx, 0, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, calls)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		calls := 0
		err := retry(ctx, 5, func() error {
			calls++
			return domain.ErrConcurrencyConflict
		})
		require.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		require.Equal(t, 1, calls)
	})
}
