// Package memory is a process-local store.Repository. It mirrors the
// PostgreSQL schema's constraints (unique codes, foreign keys, cascades,
// two-decimal money) so that code exercised against it behaves the same
// against the real database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
	"time"

	"bank-console/internal/domain"
	"bank-console/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type state struct {
	nextClient, nextAccount, nextTx int64

	clients  map[int64]domain.Client
	accounts map[string]domain.Account // by code
	txs      map[int64]domain.Transaction
	events   []domain.Event
}

func (st *state) clone() *state {
	cp := &state{
		nextClient:  st.nextClient,
		nextAccount: st.nextAccount,
		nextTx:      st.nextTx,
		clients:     make(map[int64]domain.Client, len(st.clients)),
		accounts:    make(map[string]domain.Account, len(st.accounts)),
		txs:         make(map[int64]domain.Transaction, len(st.txs)),
		events:      append([]domain.Event(nil), st.events...),
	}
	for k, v := range st.clients {
		cp.clients[k] = v
	}
	for k, v := range st.accounts {
		cp.accounts[k] = v
	}
	for k, v := range st.txs {
		cp.txs[k] = v
	}
	return cp
}

// Store keeps all rows in maps guarded by one mutex. A transaction holds
// the mutex for its whole duration and restores a snapshot on failure.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
	now  func() time.Time
}

var _ store.Repository = (*Store)(nil)

type Option func(*Store)

// WithClock sets the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		mu: &sync.Mutex{},
		st: &state{
			clients:  map[int64]domain.Client{},
			accounts: map[string]domain.Account{},
			txs:      map[int64]domain.Transaction{},
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&Store{mu: s.mu, st: s.st, inTx: true, now: s.now}); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

func money(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// VARCHAR limits from the schema.
const (
	maxName     = 100
	maxEmail    = 150
	maxCode     = 20
	maxLocation = 150
)

var errTooLong = fmt.Errorf("%w: value too long", domain.ErrValidation)

func fits(v string, limit int) bool { return utf8.RuneCountInString(v) <= limit }

func checkClient(c domain.Client) error {
	if !fits(c.Name, maxName) || !fits(c.Email, maxEmail) {
		return errTooLong
	}
	return nil
}

// ---- clients

func (s *Store) InsertClient(_ context.Context, c domain.Client) (int64, error) {
	if err := checkClient(c); err != nil {
		return 0, err
	}
	defer s.lock()()
	s.st.nextClient++
	c.ID = s.st.nextClient
	s.st.clients[c.ID] = c
	return c.ID, nil
}

func (s *Store) ClientByID(_ context.Context, id int64) (domain.Client, error) {
	defer s.lock()()
	c, ok := s.st.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListClients(_ context.Context) ([]domain.Client, error) {
	defer s.lock()()
	return s.clientsWhere(func(domain.Client) bool { return true }), nil
}

func (s *Store) UpdateClient(_ context.Context, c domain.Client) error {
	if err := checkClient(c); err != nil {
		return err
	}
	defer s.lock()()
	if _, ok := s.st.clients[c.ID]; !ok {
		return domain.ErrNotFound
	}
	s.st.clients[c.ID] = c
	return nil
}

func (s *Store) DeleteClient(_ context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.st.clients[id]; !ok {
		return domain.ErrNotFound
	}
	for _, a := range s.st.accounts {
		if a.ClientID == id {
			return fmt.Errorf("%w: row still referenced (compte_id_client_fkey)", domain.ErrValidation)
		}
	}
	delete(s.st.clients, id)
	return nil
}

func (s *Store) SearchClientsByName(_ context.Context, fragment string) ([]domain.Client, error) {
	defer s.lock()()
	return s.clientsWhere(func(c domain.Client) bool {
		return strings.Contains(c.Name, fragment)
	}), nil
}

func (s *Store) clientsWhere(keep func(domain.Client) bool) []domain.Client {
	var out []domain.Client
	for _, c := range s.st.clients {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- accounts

func (s *Store) InsertAccount(_ context.Context, a domain.Account) (int64, error) {
	if !fits(a.Code, maxCode) {
		return 0, errTooLong
	}
	defer s.lock()()
	switch t := a.Terms.(type) {
	case domain.Checking:
		if t.Overdraft.IsNegative() {
			return 0, fmt.Errorf("%w: check compte_decouvert_check failed", domain.ErrValidation)
		}
		a.Terms = domain.Checking{Overdraft: money(t.Overdraft)}
	case domain.Savings:
		if t.InterestRate.IsNegative() || t.InterestRate.GreaterThan(decimal.NewFromInt(100)) {
			return 0, fmt.Errorf("%w: check compte_taux_interet_check failed", domain.ErrValidation)
		}
		a.Terms = domain.Savings{InterestRate: money(t.InterestRate)}
	default:
		return 0, fmt.Errorf("%w: unknown account type %T", domain.ErrValidation, a.Terms)
	}
	if _, ok := s.st.accounts[a.Code]; ok {
		return 0, fmt.Errorf("%w: duplicate value violates compte_code_key", domain.ErrValidation)
	}
	if _, ok := s.st.clients[a.ClientID]; !ok {
		return 0, fmt.Errorf("%w: row still referenced (compte_id_client_fkey)", domain.ErrValidation)
	}
	s.st.nextAccount++
	a.ID = s.st.nextAccount
	a.Balance = money(a.Balance)
	s.st.accounts[a.Code] = a
	return a.ID, nil
}

func (s *Store) AccountByCode(_ context.Context, code string) (domain.Account, error) {
	defer s.lock()()
	a, ok := s.st.accounts[code]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

// AccountForUpdate needs no extra locking: a transaction already holds the
// store mutex.
func (s *Store) AccountForUpdate(ctx context.Context, code string) (domain.Account, error) {
	return s.AccountByCode(ctx, code)
}

func (s *Store) AccountsByClient(_ context.Context, clientID int64) ([]domain.Account, error) {
	defer s.lock()()
	return s.accountsWhere(func(a domain.Account) bool { return a.ClientID == clientID }), nil
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	defer s.lock()()
	return s.accountsWhere(func(domain.Account) bool { return true }), nil
}

func (s *Store) UpdateBalance(_ context.Context, code string, balance decimal.Decimal) error {
	defer s.lock()()
	a, ok := s.st.accounts[code]
	if !ok {
		return domain.ErrNotFound
	}
	a.Balance = money(balance)
	s.st.accounts[code] = a
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, code string) error {
	defer s.lock()()
	a, ok := s.st.accounts[code]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.st.accounts, code)
	for id, t := range s.st.txs {
		if t.AccountID == a.ID {
			delete(s.st.txs, id)
		}
	}
	return nil
}

func (s *Store) accountsWhere(keep func(domain.Account) bool) []domain.Account {
	var out []domain.Account
	for _, a := range s.st.accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- transactions

func (s *Store) InsertTransaction(_ context.Context, t domain.Transaction) (int64, error) {
	if !fits(t.Location, maxLocation) {
		return 0, errTooLong
	}
	defer s.lock()()
	if !t.Amount.IsPositive() {
		return 0, fmt.Errorf("%w: check transaction_montant_check failed", domain.ErrValidation)
	}
	if _, ok := domain.ParseTxKind(string(t.Kind)); !ok {
		return 0, fmt.Errorf("%w: check transaction_type_check failed", domain.ErrValidation)
	}
	if !s.accountIDExists(t.AccountID) {
		return 0, fmt.Errorf("%w: row still referenced (transaction_id_compte_fkey)", domain.ErrValidation)
	}
	s.st.nextTx++
	t.ID = s.st.nextTx
	t.Amount = money(t.Amount)
	s.st.txs[t.ID] = t
	return t.ID, nil
}

func (s *Store) accountIDExists(id int64) bool {
	for _, a := range s.st.accounts {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) TransactionsByAccount(_ context.Context, accountID int64) ([]domain.Transaction, error) {
	defer s.lock()()
	return s.txsWhere(func(t domain.Transaction) bool { return t.AccountID == accountID }, byDateDesc), nil
}

func (s *Store) TransactionsByKind(_ context.Context, kind domain.TxKind) ([]domain.Transaction, error) {
	defer s.lock()()
	return s.txsWhere(func(t domain.Transaction) bool { return t.Kind == kind }, byDateDesc), nil
}

func (s *Store) TransactionsBetween(_ context.Context, from, to time.Time) ([]domain.Transaction, error) {
	defer s.lock()()
	return s.txsWhere(func(t domain.Transaction) bool {
		return !t.Date.Before(from) && !t.Date.After(to)
	}, byDateDesc), nil
}

func (s *Store) TransactionsAbove(_ context.Context, floor decimal.Decimal) ([]domain.Transaction, error) {
	defer s.lock()()
	return s.txsWhere(func(t domain.Transaction) bool { return t.Amount.GreaterThan(floor) }, byAmountDesc), nil
}

func (s *Store) TransactionsAtLocation(_ context.Context, location string) ([]domain.Transaction, error) {
	defer s.lock()()
	return s.txsWhere(func(t domain.Transaction) bool { return t.Location == location }, byDateDesc), nil
}

func (s *Store) ListTransactions(_ context.Context) ([]domain.Transaction, error) {
	defer s.lock()()
	return s.txsWhere(func(domain.Transaction) bool { return true }, byDateDesc), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	defer s.lock()()
	if _, ok := s.st.txs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.st.txs, id)
	return nil
}

func byDateDesc(a, b domain.Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID > b.ID
}

func byAmountDesc(a, b domain.Transaction) bool {
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c > 0
	}
	return a.ID > b.ID
}

func (s *Store) txsWhere(keep func(domain.Transaction) bool, less func(a, b domain.Transaction) bool) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range s.st.txs {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ---- journal

func (s *Store) AppendEvent(_ context.Context, ev store.NewEvent) error {
	if err := store.ValidateEvent(ev); err != nil {
		return err
	}
	payload, canonical, err := store.CanonicalPayload(ev.Payload)
	if err != nil {
		return err
	}
	defer s.lock()()
	s.st.events = append(s.st.events, domain.Event{
		ID:            uuid.New(),
		Type:          ev.Type,
		AggregateType: ev.AggregateType,
		AggregateID:   ev.AggregateID,
		CorrelationID: ev.CorrelationID,
		Payload:       payload,
		Canonical:     canonical,
		CreatedAt:     s.now(),
	})
	return nil
}

func (s *Store) EventsFor(_ context.Context, aggregateType, aggregateID string) ([]domain.Event, error) {
	defer s.lock()()
	var out []domain.Event
	for _, ev := range s.st.events {
		if ev.AggregateType == aggregateType && ev.AggregateID == aggregateID {
			out = append(out, ev)
		}
	}
	return out, nil
}
