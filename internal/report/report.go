// Package report holds the read-side aggregations shown by the console:
// rankings, monthly volumes, inactivity and low-balance alerts, and the
// suspicious-activity scan.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bank-console/internal/domain"
	"bank-console/internal/store"

	"github.com/shopspring/decimal"
)

type Reports struct {
	repo store.Repository
	now  func() time.Time
}

type Option func(*Reports)

func WithClock(now func() time.Time) Option {
	return func(r *Reports) { r.now = now }
}

func New(repo store.Repository, opts ...Option) *Reports {
	r := &Reports{repo: repo, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

type ClientBalance struct {
	Client   domain.Client
	Accounts int
	Total    decimal.Decimal
}

type KindVolume struct {
	Kind   domain.TxKind
	Count  int
	Volume decimal.Decimal
}

type MonthlyReport struct {
	Year   int
	Month  time.Month
	Kinds  []KindVolume // one entry per kind, in domain.TxKinds order
	Count  int
	Volume decimal.Decimal
}

// InactiveAccount.LastActivity is zero when the account never had a
// transaction.
type InactiveAccount struct {
	Account      domain.Account
	LastActivity time.Time
}

type Summary struct {
	Clients      int
	Accounts     int
	Transactions int
	TotalBalance decimal.Decimal
}

type ClientReport struct {
	Client   domain.Client
	Accounts []domain.Account
	Total    decimal.Decimal
}

// TopClients ranks clients by the sum of their balances, highest first.
// Equal totals are ordered by name, then id.
func (r *Reports) TopClients(ctx context.Context, n int) ([]ClientBalance, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", domain.ErrValidation)
	}
	clients, err := r.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := r.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[int64]decimal.Decimal, len(clients))
	counts := make(map[int64]int, len(clients))
	for _, a := range accounts {
		totals[a.ClientID] = totals[a.ClientID].Add(a.Balance)
		counts[a.ClientID]++
	}

	out := make([]ClientBalance, 0, len(clients))
	for _, c := range clients {
		out = append(out, ClientBalance{Client: c, Accounts: counts[c.ID], Total: totals[c.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		if out[i].Client.Name != out[j].Client.Name {
			return out[i].Client.Name < out[j].Client.Name
		}
		return out[i].Client.ID < out[j].Client.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Monthly counts and sums transactions dated within the given calendar
// month, in the report clock's location.
func (r *Reports) Monthly(ctx context.Context, year int, month time.Month) (MonthlyReport, error) {
	if month < time.January || month > time.December {
		return MonthlyReport{}, fmt.Errorf("%w: month must be between 1 and 12", domain.ErrValidation)
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, r.now().Location())
	to := from.AddDate(0, 1, 0).Add(-time.Microsecond)

	txs, err := r.repo.TransactionsBetween(ctx, from, to)
	if err != nil {
		return MonthlyReport{}, err
	}

	m := MonthlyReport{Year: year, Month: month, Volume: decimal.Zero}
	for _, k := range domain.TxKinds {
		kv := KindVolume{Kind: k, Volume: decimal.Zero}
		for _, t := range txs {
			if t.Kind == k {
				kv.Count++
				kv.Volume = kv.Volume.Add(t.Amount)
			}
		}
		m.Kinds = append(m.Kinds, kv)
		m.Count += kv.Count
		m.Volume = m.Volume.Add(kv.Volume)
	}
	return m, nil
}

// Inactive lists accounts with no transaction at all, or whose latest
// transaction is older than days before now.
func (r *Reports) Inactive(ctx context.Context, days int) ([]InactiveAccount, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days cannot be negative", domain.ErrValidation)
	}
	cutoff := r.now().AddDate(0, 0, -days)

	accounts, err := r.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	var out []InactiveAccount
	for _, a := range accounts {
		txs, err := r.repo.TransactionsByAccount(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if len(txs) == 0 {
			out = append(out, InactiveAccount{Account: a})
			continue
		}
		// Newest first.
		if last := txs[0].Date; last.Before(cutoff) {
			out = append(out, InactiveAccount{Account: a, LastActivity: last})
		}
	}
	return out, nil
}

// LowBalances lists accounts strictly below threshold, lowest first.
func (r *Reports) LowBalances(ctx context.Context, threshold decimal.Decimal) ([]domain.Account, error) {
	accounts, err := r.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Account
	for _, a := range accounts {
		if a.Balance.LessThan(threshold) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Balance.LessThan(out[j].Balance) })
	return out, nil
}

func (r *Reports) Summary(ctx context.Context) (Summary, error) {
	clients, err := r.repo.ListClients(ctx)
	if err != nil {
		return Summary{}, err
	}
	accounts, err := r.repo.ListAccounts(ctx)
	if err != nil {
		return Summary{}, err
	}
	txs, err := r.repo.ListTransactions(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Clients:      len(clients),
		Accounts:     len(accounts),
		Transactions: len(txs),
		TotalBalance: decimal.Zero,
	}
	for _, a := range accounts {
		s.TotalBalance = s.TotalBalance.Add(a.Balance)
	}
	return s, nil
}

func (r *Reports) ClientReport(ctx context.Context, clientID int64) (ClientReport, error) {
	c, err := r.repo.ClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ClientReport{}, fmt.Errorf("%w: client %d", domain.ErrNotFound, clientID)
		}
		return ClientReport{}, err
	}
	accounts, err := r.repo.AccountsByClient(ctx, clientID)
	if err != nil {
		return ClientReport{}, err
	}
	rep := ClientReport{Client: c, Accounts: accounts, Total: decimal.Zero}
	for _, a := range accounts {
		rep.Total = rep.Total.Add(a.Balance)
	}
	return rep, nil
}

// RichestAccount returns the account with the highest balance; the lowest
// id wins a tie.
func (r *Reports) RichestAccount(ctx context.Context) (domain.Account, error) {
	return r.extreme(ctx, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
}

func (r *Reports) PoorestAccount(ctx context.Context) (domain.Account, error) {
	return r.extreme(ctx, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
}

func (r *Reports) extreme(ctx context.Context, better func(a, b decimal.Decimal) bool) (domain.Account, error) {
	accounts, err := r.repo.ListAccounts(ctx)
	if err != nil {
		return domain.Account{}, err
	}
	if len(accounts) == 0 {
		return domain.Account{}, fmt.Errorf("%w: no accounts", domain.ErrNotFound)
	}
	best := accounts[0]
	for _, a := range accounts[1:] {
		if better(a.Balance, best.Balance) {
			best = a
		}
	}
	return best, nil
}

// SuspiciousActivity runs Suspicious over every stored transaction.
func (r *Reports) SuspiciousActivity(ctx context.Context, threshold decimal.Decimal, country string) ([]domain.Transaction, error) {
	txs, err := r.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return Suspicious(txs, threshold, country), nil
}
