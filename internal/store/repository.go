package store

import (
	"context"
	"time"

	"bank-console/internal/domain"

	"github.com/shopspring/decimal"
)

// Repository is the storage boundary used by the bank and report packages.
// Missing rows are reported as domain.ErrNotFound, driver failures as
// domain.ErrStorage.
type Repository interface {
	InsertClient(ctx context.Context, c domain.Client) (int64, error)
	ClientByID(ctx context.Context, id int64) (domain.Client, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	UpdateClient(ctx context.Context, c domain.Client) error
	DeleteClient(ctx context.Context, id int64) error
	SearchClientsByName(ctx context.Context, fragment string) ([]domain.Client, error)

	InsertAccount(ctx context.Context, a domain.Account) (int64, error)
	AccountByCode(ctx context.Context, code string) (domain.Account, error)
	// AccountForUpdate is AccountByCode plus a row lock held until the
	// surrounding transaction ends.
	AccountForUpdate(ctx context.Context, code string) (domain.Account, error)
	AccountsByClient(ctx context.Context, clientID int64) ([]domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateBalance(ctx context.Context, code string, balance decimal.Decimal) error
	DeleteAccount(ctx context.Context, code string) error

	InsertTransaction(ctx context.Context, t domain.Transaction) (int64, error)
	TransactionsByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	TransactionsByKind(ctx context.Context, kind domain.TxKind) ([]domain.Transaction, error)
	TransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
	TransactionsAbove(ctx context.Context, floor decimal.Decimal) ([]domain.Transaction, error)
	TransactionsAtLocation(ctx context.Context, location string) ([]domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error

	AppendEvent(ctx context.Context, ev NewEvent) error
	EventsFor(ctx context.Context, aggregateType, aggregateID string) ([]domain.Event, error)

	// WithTx runs fn against a transaction-scoped Repository. The work is
	// committed when fn returns nil and rolled back otherwise. Nested calls
	// join the outer transaction.
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}

// NewEvent is a journal entry before canonicalization.
type NewEvent struct {
	Type          string
	AggregateType string
	AggregateID   string
	CorrelationID string
	Payload       any
}
