package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/web"
	"github.com/rs/zerolog"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrSelfTransfer),
		errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrBankNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOwner),
		errors.Is(err, domain.ErrWrongPin):
		return http.StatusUnauthorized
	}

	return http.StatusInternalServerError
}

func writeError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())

	code := statusOf(err)
	if code == http.StatusInternalServerError {
		l.Error().Stack().Err(err).Send()
		_ = gctx.Error(err)
		gctx.JSON(code, web.Response{Error: errorspkg.ErrInternal.Error()})

		return
	}

	l.Info().Err(err).Send()
	gctx.JSON(code, web.Response{Error: err.Error()})
}

// retry calls fn again while it fails with a retryable error, at most attempts times in total.
func retry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error

	for i := 1; ; i++ {
		err = fn()
		if err == nil || !domain.IsRetryable(err) || i >= attempts {
			return err
		}

		zerolog.Ctx(ctx).Debug().Err(err).Int("attempt", i).Msg("retrying")

		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(i) * 10 * time.Millisecond):
		}
	}
}
