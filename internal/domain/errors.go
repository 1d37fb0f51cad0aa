package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrOverdraftExceeded = errors.New("overdraft limit exceeded")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStorage           = errors.New("storage failure")

	ErrInvalidAmount     = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrClientHasAccounts = fmt.Errorf("%w: client still owns accounts", ErrValidation)
)
