// Package bank holds the business rules: client management, the account
// ledger (credit, debit, overdraft and non-negative floors) and the
// transaction recorder (deposits, withdrawals, transfers).
package bank

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewAccountCode returns "CPT-" followed by eight upper-case characters of
// a random UUID.
func NewAccountCode() string {
	return "CPT-" + strings.ToUpper(uuid.NewString()[:8])
}

type options struct {
	correlationID string
	now           func() time.Time
	newCode       func() string
}

type Option func(*options)

// WithCorrelationID tags every journal entry written by the service.
// The console uses one id per session.
func WithCorrelationID(id string) Option {
	return func(o *options) { o.correlationID = id }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCodeGenerator replaces NewAccountCode, e.g. for deterministic tests.
func WithCodeGenerator(gen func() string) Option {
	return func(o *options) { o.newCode = gen }
}

func buildOptions(opts []Option) options {
	o := options{
		correlationID: uuid.NewString(),
		now:           time.Now,
		newCode:       NewAccountCode,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
