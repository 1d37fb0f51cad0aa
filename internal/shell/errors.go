package shell

import (
	"context"
	"errors"
	"strings"

	"bank-console/internal/domain"
)

// messageFor maps an operation error to the line shown to the user.
// Driver details behind ErrStorage are never shown.
func messageFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrStorage):
		return "Storage error, the operation was not applied."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Operation cancelled."
	case errors.Is(err, domain.ErrOverdraftExceeded), errors.Is(err, domain.ErrInsufficientFunds):
		return "Refused: " + err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "Not found: " + detail(err, domain.ErrNotFound)
	case errors.Is(err, domain.ErrValidation):
		return "Invalid input: " + detail(err, domain.ErrValidation)
	default:
		return "Unexpected error, the operation was not applied."
	}
}

// detail strips the sentinel's own text from a wrapped message.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
