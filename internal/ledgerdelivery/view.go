package ledgerdelivery

import (
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/google/uuid"
)

// Amounts leave the service as display strings.

type accountView struct {
	ID        int64              `json:"id"`
	Owner     string             `json:"owner"`
	BankID    string             `json:"bank_id,omitempty"`
	Type      domain.AccountType `json:"type"`
	Status    domain.Status      `json:"status"`
	Balance   string             `json:"balance"`
	Version   int64              `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
}

func newAccountView(a domain.Account) accountView {
	return accountView{
		ID:        a.ID,
		Owner:     a.Owner,
		BankID:    a.BankID,
		Type:      a.Type,
		Status:    a.Status,
		Balance:   moneypkg.Format(a.Balance),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
	}
}

type entryView struct {
	Seq            int64     `json:"seq"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	AccountID      int64     `json:"account_id"`
	Amount         string    `json:"amount"`
	CounterpartyID *int64    `json:"counterparty_id,omitempty"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

func newEntryView(e domain.LedgerEntry) entryView {
	return entryView{
		Seq:            e.Seq,
		TransactionID:  e.TransactionID,
		AccountID:      e.AccountID,
		Amount:         moneypkg.Format(e.Delta),
		CounterpartyID: e.CounterpartyID,
		Description:    e.Description,
		CreatedAt:      e.CreatedAt,
	}
}

type entryTxView struct {
	TransactionID uuid.UUID   `json:"transaction_id"`
	Account       accountView `json:"account"`
	Entry         entryView   `json:"entry"`
}

type transferTxView struct {
	TransactionID uuid.UUID   `json:"transaction_id"`
	FromAccount   accountView `json:"from_account"`
	ToAccount     accountView `json:"to_account"`
	FromEntry     entryView   `json:"from_entry"`
	ToEntry       entryView   `json:"to_entry"`
}

type historyView struct {
	Entries      []entryView `json:"entries"`
	NextAfterSeq int64       `json:"next_after_seq,omitempty"`
}

type reconciliationView struct {
	AccountID       int64  `json:"account_id"`
	StoredBalance   string `json:"stored_balance"`
	ReplayedBalance string `json:"replayed_balance"`
	Entries         int64  `json:"entries"`
	Consistent      bool   `json:"consistent"`
}

func newEntryTxView(r domain.EntryTxResult) entryTxView {
	return entryTxView{
		TransactionID: r.TransactionID,
		Account:       newAccountView(r.Account),
		Entry:         newEntryView(r.Entry),
	}
}

func newTransferTxView(r domain.TransferTxResult) transferTxView {
	return transferTxView{
		TransactionID: r.TransactionID,
		FromAccount:   newAccountView(r.FromAccount),
		ToAccount:     newAccountView(r.ToAccount),
		FromEntry:     newEntryView(r.FromEntry),
		ToEntry:       newEntryView(r.ToEntry),
	}
}

func newHistoryView(entries []domain.LedgerEntry) historyView {
	v := historyView{Entries: make([]entryView, 0, len(entries))}

	for _, e := range entries {
		v.Entries = append(v.Entries, newEntryView(e))
	}

	if len(entries) > 0 {
		v.NextAfterSeq = entries[len(entries)-1].Seq
	}

	return v
}
