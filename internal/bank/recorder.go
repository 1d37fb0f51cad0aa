package bank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bank-console/internal/domain"
	"bank-console/internal/store"

	"github.com/shopspring/decimal"
)

// DefaultLocation labels deposits and withdrawals entered without one.
const DefaultLocation = "Agency"

// Recorder writes transaction records next to the ledger movement that
// caused them. Both happen in the same storage transaction.
type Recorder struct {
	ledger *Ledger
	repo   store.Repository
}

func NewRecorder(l *Ledger) *Recorder {
	return &Recorder{ledger: l, repo: l.repo}
}

func (r *Recorder) now() time.Time {
	return r.ledger.opts.now().Truncate(time.Microsecond)
}

func (r *Recorder) Deposit(ctx context.Context, code string, amount decimal.Decimal, location string) (domain.Transaction, error) {
	return r.single(ctx, code, amount, location, domain.TxDeposit)
}

func (r *Recorder) Withdraw(ctx context.Context, code string, amount decimal.Decimal, location string) (domain.Transaction, error) {
	return r.single(ctx, code, amount, location, domain.TxWithdrawal)
}

func (r *Recorder) single(ctx context.Context, code string, amount decimal.Decimal, location string, kind domain.TxKind) (domain.Transaction, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		location = DefaultLocation
	}

	var out domain.Transaction
	err := r.repo.WithTx(ctx, func(tx store.Repository) error {
		var (
			m         movement
			err       error
			eventType string
		)
		if kind == domain.TxDeposit {
			m, err = r.ledger.credit(ctx, tx, code, amount)
			eventType = "ACCOUNT_CREDITED"
		} else {
			m, err = r.ledger.debit(ctx, tx, code, amount)
			eventType = "ACCOUNT_DEBITED"
		}
		if err != nil {
			return err
		}

		t := domain.Transaction{
			Date:      r.now(),
			Amount:    m.amount,
			Kind:      kind,
			Location:  location,
			AccountID: m.account.ID,
		}
		if t.ID, err = tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		out = t

		payload := m.payload()
		payload.TxID = t.ID
		return r.ledger.opts.journal(ctx, tx, eventType, aggregateAccount, m.account.Code, payload)
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return out, nil
}

// Transfer moves amount from src to dst and records one Transfer
// transaction on each side. Nothing persists unless every step succeeds.
func (r *Recorder) Transfer(ctx context.Context, src, dst string, amount decimal.Decimal) (sent, received domain.Transaction, err error) {
	amount, err = normalizeAmount(amount)
	if err != nil {
		return sent, received, err
	}
	if src == dst {
		return sent, received, fmt.Errorf("%w: source and destination are the same account", domain.ErrValidation)
	}

	err = r.repo.WithTx(ctx, func(tx store.Repository) error {
		// Lock in code order so two transfers in opposite directions cannot
		// deadlock.
		first, second := src, dst
		if second < first {
			first, second = second, first
		}
		if _, err := lockAccount(ctx, tx, first); err != nil {
			return err
		}
		if _, err := lockAccount(ctx, tx, second); err != nil {
			return err
		}

		from, err := r.ledger.debit(ctx, tx, src, amount)
		if err != nil {
			return err
		}
		to, err := r.ledger.credit(ctx, tx, dst, amount)
		if err != nil {
			return err
		}

		at := r.now()
		sent = domain.Transaction{Date: at, Amount: amount, Kind: domain.TxTransfer, Location: "Transfer to " + dst, AccountID: from.account.ID}
		if sent.ID, err = tx.InsertTransaction(ctx, sent); err != nil {
			return err
		}
		received = domain.Transaction{Date: at, Amount: amount, Kind: domain.TxTransfer, Location: "Transfer from " + src, AccountID: to.account.ID}
		if received.ID, err = tx.InsertTransaction(ctx, received); err != nil {
			return err
		}

		out := from.payload()
		out.TxID, out.Counter = sent.ID, dst
		if err := r.ledger.opts.journal(ctx, tx, "TRANSFER_SENT", aggregateAccount, src, out); err != nil {
			return err
		}
		in := to.payload()
		in.TxID, in.Counter = received.ID, src
		return r.ledger.opts.journal(ctx, tx, "TRANSFER_RECEIVED", aggregateAccount, dst, in)
	})
	if err != nil {
		return domain.Transaction{}, domain.Transaction{}, err
	}
	return sent, received, nil
}

// History lists the account's transactions, newest first.
func (r *Recorder) History(ctx context.Context, code string) ([]domain.Transaction, error) {
	a, err := r.ledger.Account(ctx, code)
	if err != nil {
		return nil, err
	}
	return r.repo.TransactionsByAccount(ctx, a.ID)
}

func (r *Recorder) All(ctx context.Context) ([]domain.Transaction, error) {
	return r.repo.ListTransactions(ctx)
}

func (r *Recorder) ByKind(ctx context.Context, kind domain.TxKind) ([]domain.Transaction, error) {
	if _, ok := domain.ParseTxKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w: unknown transaction kind %q", domain.ErrValidation, kind)
	}
	return r.repo.TransactionsByKind(ctx, kind)
}

// AmountAbove returns transactions strictly above floor, largest first.
func (r *Recorder) AmountAbove(ctx context.Context, floor decimal.Decimal) ([]domain.Transaction, error) {
	return r.repo.TransactionsAbove(ctx, floor)
}

// Between is inclusive at both ends.
func (r *Recorder) Between(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period ends before it starts", domain.ErrValidation)
	}
	return r.repo.TransactionsBetween(ctx, from, to)
}

func (r *Recorder) AtLocation(ctx context.Context, location string) ([]domain.Transaction, error) {
	return r.repo.TransactionsAtLocation(ctx, location)
}

// Delete removes a single record. Balances are not adjusted.
func (r *Recorder) Delete(ctx context.Context, id int64) error {
	if err := r.repo.DeleteTransaction(ctx, id); err != nil {
		return notFound(err, "transaction %d", id)
	}
	return nil
}

func (r *Recorder) GroupByKind(ctx context.Context) (map[domain.TxKind][]domain.Transaction, error) {
	txs, err := r.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.TxKind][]domain.Transaction)
	for _, t := range txs {
		out[t.Kind] = append(out[t.Kind], t)
	}
	return out, nil
}

// GroupByMonth keys transactions by "YYYY-MM" of their date.
func (r *Recorder) GroupByMonth(ctx context.Context) (map[string][]domain.Transaction, error) {
	txs, err := r.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.Transaction)
	for _, t := range txs {
		key := t.Date.Format("2006-01")
		out[key] = append(out[key], t)
	}
	return out, nil
}

// TotalsByKind sums amounts per kind. Kinds without transactions are absent.
func (r *Recorder) TotalsByKind(ctx context.Context) (map[domain.TxKind]decimal.Decimal, error) {
	txs, err := r.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.TxKind]decimal.Decimal)
	for _, t := range txs {
		out[t.Kind] = out[t.Kind].Add(t.Amount)
	}
	return out, nil
}

// Average is zero for an account without transactions.
func (r *Recorder) Average(ctx context.Context, code string) (decimal.Decimal, error) {
	txs, err := r.History(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	if len(txs) == 0 {
		return decimal.Zero, nil
	}
	return sum(txs).Div(decimal.NewFromInt(int64(len(txs)))).Round(2), nil
}

func (r *Recorder) Total(ctx context.Context, code string) (decimal.Decimal, error) {
	txs, err := r.History(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return sum(txs), nil
}

func sum(txs []domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
