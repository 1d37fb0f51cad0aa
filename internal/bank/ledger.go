package bank

import (
	"context"
	"errors"
	"fmt"

	"bank-console/internal/domain"
	"bank-console/internal/store"

	"github.com/shopspring/decimal"
)

var maxInterestRate = decimal.NewFromInt(100)

// Ledger owns account balances. Every mutation runs in one storage
// transaction: lock the row, check the floor, write, journal.
type Ledger struct {
	repo store.Repository
	opts options
}

func NewLedger(repo store.Repository, opts ...Option) *Ledger {
	return &Ledger{repo: repo, opts: buildOptions(opts)}
}

// CheckFloor reports whether balance is allowed for the account's type:
// Checking may go down to -Overdraft, Savings never below zero.
func CheckFloor(a domain.Account, balance decimal.Decimal) error {
	switch t := a.Terms.(type) {
	case domain.Checking:
		if balance.LessThan(t.Overdraft.Neg()) {
			return fmt.Errorf("%w: %s would reach %s, limit is -%s",
				domain.ErrOverdraftExceeded, a.Code, balance.StringFixed(2), t.Overdraft.StringFixed(2))
		}
	case domain.Savings:
		if balance.IsNegative() {
			return fmt.Errorf("%w: %s would reach %s",
				domain.ErrInsufficientFunds, a.Code, balance.StringFixed(2))
		}
	default:
		return fmt.Errorf("%w: account %s has unknown type %T", domain.ErrValidation, a.Code, a.Terms)
	}
	return nil
}

// normalizeAmount rounds to cents and rejects anything not strictly positive.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return amount, nil
}

func (l *Ledger) OpenChecking(ctx context.Context, clientID int64, initial, overdraft decimal.Decimal) (domain.Account, error) {
	if overdraft.IsNegative() {
		return domain.Account{}, fmt.Errorf("%w: overdraft cannot be negative", domain.ErrValidation)
	}
	return l.open(ctx, clientID, initial, domain.Checking{Overdraft: overdraft.Round(2)})
}

func (l *Ledger) OpenSavings(ctx context.Context, clientID int64, initial, rate decimal.Decimal) (domain.Account, error) {
	if rate.IsNegative() || rate.GreaterThan(maxInterestRate) {
		return domain.Account{}, fmt.Errorf("%w: interest rate must be between 0 and 100", domain.ErrValidation)
	}
	return l.open(ctx, clientID, initial, domain.Savings{InterestRate: rate.Round(2)})
}

func (l *Ledger) open(ctx context.Context, clientID int64, initial decimal.Decimal, terms domain.Terms) (domain.Account, error) {
	if initial.IsNegative() {
		return domain.Account{}, fmt.Errorf("%w: initial balance cannot be negative", domain.ErrValidation)
	}

	a := domain.Account{
		Balance:  initial.Round(2),
		ClientID: clientID,
		Terms:    terms,
	}
	err := l.repo.WithTx(ctx, func(tx store.Repository) error {
		if _, err := tx.ClientByID(ctx, clientID); err != nil {
			return notFound(err, "client %d", clientID)
		}
		a.Code = l.opts.newCode()
		id, err := tx.InsertAccount(ctx, a)
		if err != nil {
			return err
		}
		a.ID = id
		return l.opts.journal(ctx, tx, "ACCOUNT_OPENED", aggregateAccount, a.Code, accountPayload{
			Code:     a.Code,
			ClientID: a.ClientID,
			Kind:     string(a.Kind()),
			Balance:  a.Balance,
		})
	})
	if err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func (l *Ledger) Account(ctx context.Context, code string) (domain.Account, error) {
	a, err := l.repo.AccountByCode(ctx, code)
	if err != nil {
		return domain.Account{}, notFound(err, "account %s", code)
	}
	return a, nil
}

func (l *Ledger) AccountsOf(ctx context.Context, clientID int64) ([]domain.Account, error) {
	return l.repo.AccountsByClient(ctx, clientID)
}

func (l *Ledger) Accounts(ctx context.Context) ([]domain.Account, error) {
	return l.repo.ListAccounts(ctx)
}

// Journal lists the account's journal entries in append order. Entries
// outlive the account itself.
func (l *Ledger) Journal(ctx context.Context, code string) ([]domain.Event, error) {
	return l.repo.EventsFor(ctx, aggregateAccount, code)
}

// DeleteAccount removes the account and, through the schema cascade, its
// transactions.
func (l *Ledger) DeleteAccount(ctx context.Context, code string) error {
	return l.repo.WithTx(ctx, func(tx store.Repository) error {
		a, err := tx.AccountForUpdate(ctx, code)
		if err != nil {
			return notFound(err, "account %s", code)
		}
		if err := tx.DeleteAccount(ctx, code); err != nil {
			return err
		}
		return l.opts.journal(ctx, tx, "ACCOUNT_CLOSED", aggregateAccount, code, accountPayload{
			Code:     a.Code,
			ClientID: a.ClientID,
			Kind:     string(a.Kind()),
			Balance:  a.Balance,
		})
	})
}

// Credit adds amount to the balance. No floor applies to a credit.
func (l *Ledger) Credit(ctx context.Context, code string, amount decimal.Decimal) (domain.Account, error) {
	return l.mutate(ctx, "ACCOUNT_CREDITED", func(tx store.Repository) (movement, error) {
		return l.credit(ctx, tx, code, amount)
	})
}

// Debit subtracts amount, failing with ErrOverdraftExceeded or
// ErrInsufficientFunds when the result would cross the account's floor.
func (l *Ledger) Debit(ctx context.Context, code string, amount decimal.Decimal) (domain.Account, error) {
	return l.mutate(ctx, "ACCOUNT_DEBITED", func(tx store.Repository) (movement, error) {
		return l.debit(ctx, tx, code, amount)
	})
}

// SetBalance is the administrative correction: the floor is checked against
// the target value itself.
func (l *Ledger) SetBalance(ctx context.Context, code string, balance decimal.Decimal) (domain.Account, error) {
	return l.mutate(ctx, "BALANCE_CORRECTED", func(tx store.Repository) (movement, error) {
		a, err := lockAccount(ctx, tx, code)
		if err != nil {
			return movement{}, err
		}
		before := a.Balance
		if a, err = writeBalance(ctx, tx, a, balance.Round(2), true); err != nil {
			return movement{}, err
		}
		return movement{account: a, before: before, amount: a.Balance.Sub(before).Abs()}, nil
	})
}

// movement is one balance change as the journal records it.
type movement struct {
	account domain.Account
	before  decimal.Decimal
	amount  decimal.Decimal
}

func (m movement) payload() balancePayload {
	return balancePayload{
		Code:   m.account.Code,
		Before: m.before,
		After:  m.account.Balance,
		Amount: m.amount,
	}
}

func (l *Ledger) mutate(ctx context.Context, eventType string, fn func(tx store.Repository) (movement, error)) (domain.Account, error) {
	var out domain.Account
	err := l.repo.WithTx(ctx, func(tx store.Repository) error {
		m, err := fn(tx)
		if err != nil {
			return err
		}
		out = m.account
		return l.opts.journal(ctx, tx, eventType, aggregateAccount, m.account.Code, m.payload())
	})
	if err != nil {
		return domain.Account{}, err
	}
	return out, nil
}

// credit and debit run inside a caller-owned transaction and return the
// updated account with the balance it had and the normalized amount.
func (l *Ledger) credit(ctx context.Context, tx store.Repository, code string, amount decimal.Decimal) (movement, error) {
	amount, err := normalizeAmount(amount)
	if err != nil {
		return movement{}, err
	}
	a, err := lockAccount(ctx, tx, code)
	if err != nil {
		return movement{}, err
	}
	before := a.Balance
	if a, err = writeBalance(ctx, tx, a, before.Add(amount), false); err != nil {
		return movement{}, err
	}
	return movement{account: a, before: before, amount: amount}, nil
}

func (l *Ledger) debit(ctx context.Context, tx store.Repository, code string, amount decimal.Decimal) (movement, error) {
	amount, err := normalizeAmount(amount)
	if err != nil {
		return movement{}, err
	}
	a, err := lockAccount(ctx, tx, code)
	if err != nil {
		return movement{}, err
	}
	before := a.Balance
	if a, err = writeBalance(ctx, tx, a, before.Sub(amount), true); err != nil {
		return movement{}, err
	}
	return movement{account: a, before: before, amount: amount}, nil
}

func lockAccount(ctx context.Context, tx store.Repository, code string) (domain.Account, error) {
	a, err := tx.AccountForUpdate(ctx, code)
	if err != nil {
		return domain.Account{}, notFound(err, "account %s", code)
	}
	return a, nil
}

func writeBalance(ctx context.Context, tx store.Repository, a domain.Account, next decimal.Decimal, checkFloor bool) (domain.Account, error) {
	if checkFloor {
		if err := CheckFloor(a, next); err != nil {
			return a, err
		}
	}
	if err := tx.UpdateBalance(ctx, a.Code, next); err != nil {
		return a, err
	}
	a.Balance = next
	return a, nil
}

// notFound adds the missing key to a bare ErrNotFound and passes other
// errors through.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
