package bank_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"bank-console/internal/bank"
	"bank-console/internal/domain"
	"bank-console/internal/store/memory"

	"github.com/shopspring/decimal"
)

type fixture struct {
	repo     *memory.Store
	clients  *bank.Clients
	ledger   *bank.Ledger
	recorder *bank.Recorder
	clock    *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)}
	n := 0
	codes := func() string {
		n++
		return fmt.Sprintf("CPT-%08d", n)
	}
	repo := memory.New(memory.WithClock(clock.now))
	opts := []bank.Option{
		bank.WithCorrelationID("test-session"),
		bank.WithClock(clock.now),
		bank.WithCodeGenerator(codes),
	}
	ledger := bank.NewLedger(repo, opts...)
	return &fixture{
		repo:     repo,
		clients:  bank.NewClients(repo, opts...),
		ledger:   ledger,
		recorder: bank.NewRecorder(ledger),
		clock:    clock,
	}
}

func (f *fixture) client(t *testing.T, name string) domain.Client {
	t.Helper()
	c, err := f.clients.Add(context.Background(), name, "someone@example.com")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func (f *fixture) checking(t *testing.T, clientID int64, balance, overdraft string) domain.Account {
	t.Helper()
	a, err := f.ledger.OpenChecking(context.Background(), clientID, dec(balance), dec(overdraft))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func (f *fixture) savings(t *testing.T, clientID int64, balance, rate string) domain.Account {
	t.Helper()
	a, err := f.ledger.OpenSavings(context.Background(), clientID, dec(balance), dec(rate))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func (f *fixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	a, err := f.ledger.Account(context.Background(), code)
	if err != nil {
		t.Fatal(err)
	}
	return a.Balance
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertBalance(t *testing.T, f *fixture, code, want string) {
	t.Helper()
	if got := f.balance(t, code); !got.Equal(dec(want)) {
		t.Fatalf("balance of %s = %s, want %s", code, got, want)
	}
}

func TestCheckingOverdraftScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Amina")
	a := f.checking(t, c.ID, "100", "50")

	if _, err := f.ledger.Debit(ctx, a.Code, dec("140")); err != nil {
		t.Fatal(err)
	}
	assertBalance(t, f, a.Code, "-40")

	_, err := f.ledger.Debit(ctx, a.Code, dec("20"))
	if !errors.Is(err, domain.ErrOverdraftExceeded) {
		t.Fatalf("expected ErrOverdraftExceeded, got %v", err)
	}
	assertBalance(t, f, a.Code, "-40")
}

func TestSavingsNeverNegative(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Youssef")
	a := f.savings(t, c.ID, "0", "2.5")

	_, err := f.ledger.Debit(context.Background(), a.Code, dec("1"))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	assertBalance(t, f, a.Code, "0")
}

func TestCreditAddsAmount(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Sara")
	a := f.savings(t, c.ID, "10.50", "1")

	got, err := f.ledger.Credit(context.Background(), a.Code, dec("0.255"))
	if err != nil {
		t.Fatal(err)
	}
	// Amounts are rounded to cents before use.
	if !got.Balance.Equal(dec("10.76")) {
		t.Fatalf("balance = %s, want 10.76", got.Balance)
	}
	assertBalance(t, f, a.Code, "10.76")
}

func TestInvalidAmountsAndUnknownCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Omar")
	a := f.checking(t, c.ID, "100", "0")

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"credit zero", func() error { _, err := f.ledger.Credit(ctx, a.Code, dec("0")); return err }, domain.ErrInvalidAmount},
		{"debit negative", func() error { _, err := f.ledger.Debit(ctx, a.Code, dec("-5")); return err }, domain.ErrInvalidAmount},
		{"debit rounds to zero", func() error { _, err := f.ledger.Debit(ctx, a.Code, dec("0.004")); return err }, domain.ErrInvalidAmount},
		{"credit unknown", func() error { _, err := f.ledger.Credit(ctx, "CPT-NOPE", dec("1")); return err }, domain.ErrNotFound},
		{"debit unknown", func() error { _, err := f.ledger.Debit(ctx, "CPT-NOPE", dec("1")); return err }, domain.ErrNotFound},
		{"set unknown", func() error { _, err := f.ledger.SetBalance(ctx, "CPT-NOPE", dec("1")); return err }, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	assertBalance(t, f, a.Code, "100")

	if !errors.Is(domain.ErrInvalidAmount, domain.ErrValidation) {
		t.Fatal("ErrInvalidAmount must be a validation error")
	}
}

func TestSetBalanceChecksTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Leila")
	chk := f.checking(t, c.ID, "0", "200")
	sav := f.savings(t, c.ID, "50", "3")

	if _, err := f.ledger.SetBalance(ctx, chk.Code, dec("-200")); err != nil {
		t.Fatal(err)
	}
	assertBalance(t, f, chk.Code, "-200")

	if _, err := f.ledger.SetBalance(ctx, chk.Code, dec("-200.01")); !errors.Is(err, domain.ErrOverdraftExceeded) {
		t.Fatalf("expected ErrOverdraftExceeded, got %v", err)
	}
	if _, err := f.ledger.SetBalance(ctx, sav.Code, dec("-0.01")); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	assertBalance(t, f, chk.Code, "-200")
	assertBalance(t, f, sav.Code, "50")
}

func TestJournalRecordsPriorBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Hamza")
	a := f.checking(t, c.ID, "100", "50")

	if _, err := f.ledger.Debit(ctx, a.Code, dec("140")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.SetBalance(ctx, a.Code, dec("500")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.Credit(ctx, a.Code, dec("0.5")); err != nil {
		t.Fatal(err)
	}

	events, err := f.ledger.Journal(ctx, a.Code)
	if err != nil {
		t.Fatal(err)
	}
	type entry struct {
		Type                  string
		Before, After, Amount string
	}
	var got []entry
	for _, ev := range events[1:] {
		var p struct {
			Before decimal.Decimal `json:"before"`
			After  decimal.Decimal `json:"after"`
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			t.Fatal(err)
		}
		got = append(got, entry{ev.Type, p.Before.StringFixed(2), p.After.StringFixed(2), p.Amount.StringFixed(2)})
	}
	want := []entry{
		{"ACCOUNT_DEBITED", "100.00", "-40.00", "140.00"},
		{"BALANCE_CORRECTED", "-40.00", "500.00", "540.00"},
		{"ACCOUNT_CREDITED", "500.00", "500.50", "0.50"},
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("journal = %+v, want %+v", got, want)
	}
}

func TestCheckFloor(t *testing.T) {
	cases := []struct {
		name    string
		account domain.Account
		balance string
		want    error
	}{
		{"checking within overdraft", domain.Account{Terms: domain.Checking{Overdraft: dec("50")}}, "-50", nil},
		{"checking past overdraft", domain.Account{Terms: domain.Checking{Overdraft: dec("50")}}, "-50.01", domain.ErrOverdraftExceeded},
		{"checking without overdraft", domain.Account{Terms: domain.Checking{Overdraft: dec("0")}}, "-1", domain.ErrOverdraftExceeded},
		{"savings zero", domain.Account{Terms: domain.Savings{InterestRate: dec("1")}}, "0", nil},
		{"savings negative", domain.Account{Terms: domain.Savings{InterestRate: dec("1")}}, "-0.01", domain.ErrInsufficientFunds},
		{"no terms", domain.Account{}, "10", domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := bank.CheckFloor(tc.account, dec(tc.balance))
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOpenAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Nadia")

	if _, err := f.ledger.OpenChecking(ctx, c.ID, dec("-1"), dec("0")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("negative initial: got %v", err)
	}
	if _, err := f.ledger.OpenChecking(ctx, c.ID, dec("0"), dec("-1")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("negative overdraft: got %v", err)
	}
	if _, err := f.ledger.OpenSavings(ctx, c.ID, dec("0"), dec("100.01")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("rate above 100: got %v", err)
	}
	if _, err := f.ledger.OpenSavings(ctx, 999, dec("0"), dec("1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown client: got %v", err)
	}

	a := f.savings(t, c.ID, "0", "100")
	if a.Code != "CPT-00000001" {
		t.Fatalf("code = %q, want generated CPT-00000001", a.Code)
	}
	if a.Kind() != domain.KindSavings {
		t.Fatalf("kind = %q", a.Kind())
	}
}

func TestNewAccountCodeShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := bank.NewAccountCode()
		if len(code) != 12 || code[:4] != "CPT-" {
			t.Fatalf("unexpected code %q", code)
		}
		for _, r := range code[4:] {
			if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
				t.Fatalf("unexpected character %q in %q", r, code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Fatalf("codes repeat too often: %d distinct of 50", len(seen))
	}
}

func TestDeleteAccountAndJournal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.client(t, "Karim")
	a := f.checking(t, c.ID, "10", "0")

	if _, err := f.recorder.Deposit(ctx, a.Code, dec("5"), ""); err != nil {
		t.Fatal(err)
	}
	if err := f.ledger.DeleteAccount(ctx, a.Code); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ledger.Account(ctx, a.Code); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := f.ledger.DeleteAccount(ctx, a.Code); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	all, err := f.recorder.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("transactions must go with the account, %d left", len(all))
	}

	events, err := f.ledger.Journal(ctx, a.Code)
	if err != nil {
		t.Fatal(err)
	}
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
		if ev.CorrelationID != "test-session" {
			t.Fatalf("correlation id = %q", ev.CorrelationID)
		}
	}
	want := []string{"ACCOUNT_OPENED", "ACCOUNT_CREDITED", "ACCOUNT_CLOSED"}
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Fatalf("journal = %v, want %v", types, want)
	}
}
