package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event names published after a commit.
const (
	EventTransactionCompleted = "transaction.completed"
	EventStatusChanged        = "account.status_changed"
)

// Transaction kinds carried by TransactionCompleted.
const (
	KindTransfer   = "transfer"
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
)

// TransactionCompleted is emitted once a transaction has been committed.
type TransactionCompleted struct {
	TransactionID uuid.UUID     `json:"transaction_id"`
	Kind          string        `json:"kind"`
	Entries       []LedgerEntry `json:"entries"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// StatusChanged is emitted once a status transition has been committed.
type StatusChanged struct {
	Change     StatusChange `json:"change"`
	OccurredAt time.Time    `json:"occurred_at"`
}
