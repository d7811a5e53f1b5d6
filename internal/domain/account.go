// Package domain provides definitions of all ledger entities and errors.
package domain

import "time"

// AccountType tags the product an account belongs to.
type AccountType string

// Supported account types.
const (
	AccountTypeSaving           AccountType = "saving"
	AccountTypeCurrent          AccountType = "current"
	AccountTypeFixedDeposit     AccountType = "fixed_deposit"
	AccountTypeRecurringDeposit AccountType = "recurring_deposit"
)

// AccountTypes holds all the supported account types.
var AccountTypes = []AccountType{
	AccountTypeSaving,
	AccountTypeCurrent,
	AccountTypeFixedDeposit,
	AccountTypeRecurringDeposit,
}

// Valid reports whether t is a supported account type.
func (t AccountType) Valid() bool {
	for _, v := range AccountTypes {
		if v == t {
			return true
		}
	}

	return false
}

// PIN length bounds in digits.
const (
	MinPinLen = 4
	MaxPinLen = 6
)

// ValidPin reports whether pin is MinPinLen to MaxPinLen decimal digits.
func ValidPin(pin string) bool {
	if len(pin) < MinPinLen || len(pin) > MaxPinLen {
		return false
	}

	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// Account holds the balance and status of a single account.
//
// Balance is a cached projection of the account's ledger entries in minor units.
type Account struct {
	ID        int64       `json:"id"`
	Owner     string      `json:"owner"`
	BankID    string      `json:"bank_id,omitempty"`
	Type      AccountType `json:"type"`
	Status    Status      `json:"status"`
	Balance   int64       `json:"balance"`
	Version   int64       `json:"version"`
	PinHash   string      `json:"-"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateAccountParams is the input data to open an account.
type CreateAccountParams struct {
	Owner   string
	BankID  string
	Type    AccountType
	PinHash string
}

// CompareAndApplyParams is the input data of the only account mutation path.
//
// The change is applied only when the stored version equals ExpectedVersion.
// A nil NewStatus leaves the status untouched.
type CompareAndApplyParams struct {
	ID              int64
	ExpectedVersion int64
	Delta           int64
	NewStatus       *Status
}

// OpenAccountParams is the customer input to open an account.
//
// BankName is optional and resolved to a bank ID. Pin is the plain transaction PIN.
type OpenAccountParams struct {
	Owner    string      `json:"owner"`
	Type     AccountType `json:"type"`
	BankName string      `json:"bank_name"`
	Pin      string      `json:"-"`
}
