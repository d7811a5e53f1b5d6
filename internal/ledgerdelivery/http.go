// Package ledgerdelivery manages delivery layer of the ledger engine.
package ledgerdelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Open(ctx context.Context, arg domain.OpenAccountParams) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	Deposit(ctx context.Context, id, amount int64) (domain.EntryTxResult, error)
	Withdraw(ctx context.Context, id, amount int64) (domain.EntryTxResult, error)
	TransferTo(ctx context.Context, arg domain.TransferToParams) (domain.TransferTxResult, error)
	Freeze(ctx context.Context, id int64, actor string) (domain.Account, error)
	Unfreeze(ctx context.Context, id int64, actor string) (domain.Account, error)
	Suspend(ctx context.Context, id int64, actor string) (domain.Account, error)
	Close(ctx context.Context, id int64, actor string) (domain.Account, error)
	HistoryPage(ctx context.Context, arg domain.HistoryParams) ([]domain.LedgerEntry, error)
	Reconcile(ctx context.Context, id int64) (domain.Reconciliation, error)
	StatusChanges(ctx context.Context, id int64) ([]domain.StatusChange, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service  Service
	attempts int
}

// NewHandler returns ledger handler. Mutations failing with a concurrency conflict
// are tried up to attempts times.
func NewHandler(s Service, attempts int) *Handler {
	return &Handler{
		service:  s,
		attempts: attempts,
	}
}

type accountURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type openRequest struct {
	Type     string `json:"type" binding:"required,accounttype"`
	BankName string `json:"bank_name"`
	Pin      string `json:"pin" binding:"required,pin"`
}

type amountRequest struct {
	Amount string `json:"amount" binding:"required,money"`
}

type withdrawRequest struct {
	Amount string `json:"amount" binding:"required,money"`
	Pin    string `json:"pin" binding:"required"`
}

type pinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

type recipientRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	BankName   string `json:"bank_name"`
}

type transferRequest struct {
	FromAccountID int64            `json:"from_account_id" binding:"required,min=1"`
	To            recipientRequest `json:"to" binding:"required"`
	Amount        string           `json:"amount" binding:"required,money"`
	Description   string           `json:"description" binding:"max=255"`
	Pin           string           `json:"pin" binding:"required"`
}

type historyQuery struct {
	From     time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	AfterSeq int64     `form:"after_seq" binding:"min=0"`
	Limit    int32     `form:"limit" binding:"min=0,max=1000"`
}

func badRequest(gctx *gin.Context, err error) {
	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()
	gctx.JSON(http.StatusBadRequest, web.Response{Error: err.Error()})
}

// owned loads the account and checks that the caller owns it.
// Admins may read any account when allowAdmin is set.
func (h *Handler) owned(ctx context.Context, payload *tokenpkg.Payload, id int64, allowAdmin bool) (domain.Account, error) {
	a, err := h.service.Get(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	if a.Owner != payload.Username && !(allowAdmin && payload.Role == tokenpkg.RoleAdmin) {
		return domain.Account{}, domain.ErrInvalidOwner
	}

	return a, nil
}

// unlocked is owned plus the transaction PIN check.
func (h *Handler) unlocked(ctx context.Context, payload *tokenpkg.Payload, id int64, pin string) error {
	a, err := h.owned(ctx, payload, id, false)
	if err != nil {
		return err
	}

	if err := passpkg.Check(pin, a.PinHash); err != nil {
		return domain.ErrWrongPin
	}

	return nil
}

func mustPayload(gctx *gin.Context) *tokenpkg.Payload {
	return gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)
}

// Open handles http request to open an account for the caller.
func (h *Handler) Open(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req openRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	account, err := h.service.Open(ctx, domain.OpenAccountParams{
		Owner:    mustPayload(gctx).Username,
		Type:     domain.AccountType(req.Type),
		BankName: req.BankName,
		Pin:      req.Pin,
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, web.Response{Data: newAccountView(account)})
}

// Get handles http request to get an account.
func (h *Handler) Get(gctx *gin.Context) {
	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	account, err := h.owned(gctx.Request.Context(), mustPayload(gctx), uri.ID, true)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newAccountView(account)})
}

// Deposit handles http request to deposit money to an account of the caller.
func (h *Handler) Deposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	var req amountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	amount, err := moneypkg.Parse(req.Amount)
	if err != nil {
		badRequest(gctx, err)
		return
	}

	if _, err := h.owned(ctx, mustPayload(gctx), uri.ID, false); err != nil {
		writeError(gctx, err)
		return
	}

	var result domain.EntryTxResult

	err = retry(ctx, h.attempts, func() (err error) {
		result, err = h.service.Deposit(ctx, uri.ID, amount)
		return err
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newEntryTxView(result)})
}

// Withdraw handles http request to withdraw money from an account of the caller.
func (h *Handler) Withdraw(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	var req withdrawRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	amount, err := moneypkg.Parse(req.Amount)
	if err != nil {
		badRequest(gctx, err)
		return
	}

	if err := h.unlocked(ctx, mustPayload(gctx), uri.ID, req.Pin); err != nil {
		writeError(gctx, err)
		return
	}

	var result domain.EntryTxResult

	err = retry(ctx, h.attempts, func() (err error) {
		result, err = h.service.Withdraw(ctx, uri.ID, amount)
		return err
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newEntryTxView(result)})
}

// Transfer handles http request to transfer money from an account of the caller to a recipient.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	amount, err := moneypkg.Parse(req.Amount)
	if err != nil {
		badRequest(gctx, err)
		return
	}

	if err := h.unlocked(ctx, mustPayload(gctx), req.FromAccountID, req.Pin); err != nil {
		writeError(gctx, err)
		return
	}

	arg := domain.TransferToParams{
		FromAccountID: req.FromAccountID,
		To: domain.Recipient{
			Identifier: req.To.Identifier,
			BankName:   req.To.BankName,
		},
		Amount:      amount,
		Description: req.Description,
	}

	var result domain.TransferTxResult

	err = retry(ctx, h.attempts, func() (err error) {
		result, err = h.service.TransferTo(ctx, arg)
		return err
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newTransferTxView(result)})
}

type statusFunc func(ctx context.Context, id int64, actor string) (domain.Account, error)

// changeStatus runs a PIN protected status transition requested by the owner.
func (h *Handler) changeStatus(gctx *gin.Context, fn statusFunc) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	var req pinRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		badRequest(gctx, err)
		return
	}

	payload := mustPayload(gctx)

	if err := h.unlocked(ctx, payload, uri.ID, req.Pin); err != nil {
		writeError(gctx, err)
		return
	}

	var account domain.Account

	err := retry(ctx, h.attempts, func() (err error) {
		account, err = fn(ctx, uri.ID, payload.Username)
		return err
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newAccountView(account)})
}

// Freeze handles http request to freeze an account of the caller.
func (h *Handler) Freeze(gctx *gin.Context) {
	h.changeStatus(gctx, h.service.Freeze)
}

// Unfreeze handles http request to unfreeze an account of the caller.
func (h *Handler) Unfreeze(gctx *gin.Context) {
	h.changeStatus(gctx, h.service.Unfreeze)
}

// Close handles http request to close an account of the caller.
func (h *Handler) Close(gctx *gin.Context) {
	h.changeStatus(gctx, h.service.Close)
}

// Suspend handles administrative http request to suspend an account.
func (h *Handler) Suspend(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	actor := mustPayload(gctx).Username

	var account domain.Account

	err := retry(ctx, h.attempts, func() (err error) {
		account, err = h.service.Suspend(ctx, uri.ID, actor)
		return err
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newAccountView(account)})
}

// History handles http request to list a page of account entries.
func (h *Handler) History(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	var q historyQuery
	if err := gctx.ShouldBindQuery(&q); err != nil {
		badRequest(gctx, err)
		return
	}

	if _, err := h.owned(ctx, mustPayload(gctx), uri.ID, true); err != nil {
		writeError(gctx, err)
		return
	}

	entries, err := h.service.HistoryPage(ctx, domain.HistoryParams{
		AccountID: uri.ID,
		From:      q.From,
		To:        q.To,
		AfterSeq:  q.AfterSeq,
		Limit:     q.Limit,
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: newHistoryView(entries)})
}

// Reconcile handles administrative http request to replay an account's entries.
func (h *Handler) Reconcile(gctx *gin.Context) {
	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	r, err := h.service.Reconcile(gctx.Request.Context(), uri.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: reconciliationView{
		AccountID:       r.AccountID,
		StoredBalance:   moneypkg.Format(r.StoredBalance),
		ReplayedBalance: moneypkg.Format(r.ReplayedBalance),
		Entries:         r.Entries,
		Consistent:      r.Consistent(),
	}})
}

// StatusChanges handles administrative http request to list an account's status audit trail.
func (h *Handler) StatusChanges(gctx *gin.Context) {
	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		badRequest(gctx, err)
		return
	}

	changes, err := h.service.StatusChanges(gctx.Request.Context(), uri.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: changes})
}
