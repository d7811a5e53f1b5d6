// Package randompkg provides functionality for generating random ledger test data.
package randompkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/go-petr/pet-ledger/internal/domain"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz"
	digits   = "0123456789"
)

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int64) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// Int64Between generates a random integer in [min, max].
func Int64Between(min, max int64) int64 {
	return min + Intn(max-min+1)
}

func fromSet(set string, n int) string {
	var sb strings.Builder

	k := int64(len(set))

	for i := 0; i < n; i++ {
		_ = sb.WriteByte(set[Intn(k)]) // The returned err is always nil.
	}

	return sb.String()
}

// String generates a random string of length n.
func String(n int) string {
	return fromSet(alphabet, n)
}

// Owner generates a random owner name.
func Owner() string {
	return String(6)
}

// Pin generates a random six digit transaction PIN.
func Pin() string {
	return fromSet(digits, 6)
}

// Amount generates a random positive amount in minor units not greater than max.
func Amount(max int64) int64 {
	return Int64Between(1, max)
}

// AccountType picks one of the supported account types.
func AccountType() domain.AccountType {
	return domain.AccountTypes[Intn(int64(len(domain.AccountTypes)))]
}

// BankName generates a random bank name.
func BankName() string {
	return fmt.Sprintf("%s bank", String(8))
}
