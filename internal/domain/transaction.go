package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferParams is the input data for the transfer transaction.
type TransferParams struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        int64  `json:"amount"` // must be positive
	Description   string `json:"description"`
}

// Recipient names a receiver the way a customer knows it.
type Recipient struct {
	Identifier string `json:"identifier"`
	BankName   string `json:"bank_name,omitempty"`
}

// TransferToParams is the input data for a transfer to a resolved recipient.
type TransferToParams struct {
	FromAccountID int64
	To            Recipient
	Amount        int64
	Description   string
}

// TransferTxResult is the result of the transfer transaction.
type TransferTxResult struct {
	TransactionID uuid.UUID   `json:"transaction_id"`
	FromAccount   Account     `json:"from_account"`
	ToAccount     Account     `json:"to_account"`
	FromEntry     LedgerEntry `json:"from_entry"`
	ToEntry       LedgerEntry `json:"to_entry"`
}

// EntryTxResult is the result of a deposit or withdrawal.
type EntryTxResult struct {
	TransactionID uuid.UUID   `json:"transaction_id"`
	Account       Account     `json:"account"`
	Entry         LedgerEntry `json:"entry"`
}

// Reconciliation compares an account's cached balance with the replay of its entries.
type Reconciliation struct {
	AccountID       int64 `json:"account_id"`
	StoredBalance   int64 `json:"stored_balance"`
	ReplayedBalance int64 `json:"replayed_balance"`
	Entries         int64 `json:"entries"`
}

// Consistent reports whether the stored balance matches the replay.
func (r Reconciliation) Consistent() bool {
	return r.StoredBalance == r.ReplayedBalance
}

// StatusChange is the audit record of an account status transition.
type StatusChange struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"account_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddStatusChangeParams is the input data to record a status transition.
type AddStatusChangeParams struct {
	AccountID  int64
	FromStatus Status
	ToStatus   Status
	Actor      string
	CreatedAt  time.Time
}
