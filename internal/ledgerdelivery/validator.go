package ledgerdelivery

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/go-playground/validator/v10"
)

// ValidMoney validates that the field is a positive amount with at most two decimals.
var ValidMoney validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return moneypkg.Valid(s)
	}

	return false
}

// ValidAccountType validates whether the account type is supported.
var ValidAccountType validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return domain.AccountType(s).Valid()
	}

	return false
}

// ValidPin validates that the field is a 4 to 6 digit PIN.
var ValidPin validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return domain.ValidPin(s)
	}

	return false
}

// RegisterValidators registers the custom binding tags money, accounttype and pin.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	for tag, fn := range map[string]validator.Func{
		"money":       ValidMoney,
		"accounttype": ValidAccountType,
		"pin":         ValidPin,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	return nil
}
