package domain

import (
	"time"

	"github.com/google/uuid"
)

// Default ledger descriptions for single-entry transactions.
const (
	DescriptionDeposit    = "Deposit"
	DescriptionWithdrawal = "Withdrawal"
)

// LedgerEntry holds one immutable signed balance change of an account.
type LedgerEntry struct {
	Seq            int64     `json:"seq"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	AccountID      int64     `json:"account_id"`
	Delta          int64     `json:"delta"` // can be negative or positive
	CounterpartyID *int64    `json:"counterparty_id,omitempty"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// AppendEntryParams is the input data to append a ledger entry.
type AppendEntryParams struct {
	TransactionID  uuid.UUID
	AccountID      int64
	Delta          int64
	CounterpartyID *int64
	Description    string
	CreatedAt      time.Time
}

// HistoryParams selects a page of an account's entries ordered by Seq.
//
// From and To bound CreatedAt (inclusive, exclusive) when non-zero.
type HistoryParams struct {
	AccountID int64
	From      time.Time
	To        time.Time
	AfterSeq  int64
	Limit     int32
}
