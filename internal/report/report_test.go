package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bank-console/internal/bank"
	"bank-console/internal/domain"
	"bank-console/internal/report"
	"bank-console/internal/store/memory"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

type world struct {
	clock    time.Time
	clients  *bank.Clients
	ledger   *bank.Ledger
	recorder *bank.Recorder
	reports  *report.Reports
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{clock: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	now := func() time.Time { return w.clock }
	repo := memory.New(memory.WithClock(now))
	w.clients = bank.NewClients(repo)
	w.ledger = bank.NewLedger(repo, bank.WithClock(now))
	w.recorder = bank.NewRecorder(w.ledger)
	w.reports = report.New(repo, report.WithClock(now))
	return w
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (w *world) client(t *testing.T, name string) domain.Client {
	t.Helper()
	c, err := w.clients.Add(context.Background(), name, "c@example.com")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func (w *world) account(t *testing.T, clientID int64, balance string) domain.Account {
	t.Helper()
	a, err := w.ledger.OpenChecking(context.Background(), clientID, d(balance), d("100"))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestTopClientsUsesRealClientIDs(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	// Deleting the first client shifts list positions; ranking must still
	// attribute accounts by id.
	gone := w.client(t, "Gone")
	if err := w.clients.Delete(ctx, gone.ID); err != nil {
		t.Fatal(err)
	}
	a := w.client(t, "Adil")
	b := w.client(t, "Badr")
	c := w.client(t, "Chama")
	w.account(t, a.ID, "100")
	w.account(t, a.ID, "400")
	w.account(t, b.ID, "900")
	w.account(t, c.ID, "500")

	top, err := w.reports.TopClients(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, cb := range top {
		got = append(got, cb.Client.Name+"="+cb.Total.StringFixed(2))
	}
	if diff := cmp.Diff([]string{"Badr=900.00", "Adil=500.00"}, got); diff != "" {
		t.Fatalf("top clients (-want +got):\n%s", diff)
	}
	if top[1].Accounts != 2 {
		t.Fatalf("Adil should have 2 accounts, got %d", top[1].Accounts)
	}

	all, err := w.reports.TopClients(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	// Chama ties with Adil on 500 and sorts after by name.
	if len(all) != 3 || all[2].Client.Name != "Chama" {
		t.Fatalf("unexpected full ranking %+v", all)
	}
	if _, err := w.reports.TopClients(ctx, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestMonthly(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	c := w.client(t, "Month")
	a := w.account(t, c.ID, "1000")
	b := w.account(t, c.ID, "0")

	w.clock = time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)
	if _, err := w.recorder.Deposit(ctx, a.Code, d("1"), ""); err != nil {
		t.Fatal(err)
	}
	w.clock = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := w.recorder.Deposit(ctx, a.Code, d("10"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := w.recorder.Withdraw(ctx, a.Code, d("5.50"), ""); err != nil {
		t.Fatal(err)
	}
	w.clock = time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	if _, _, err := w.recorder.Transfer(ctx, a.Code, b.Code, d("20")); err != nil {
		t.Fatal(err)
	}
	w.clock = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if _, err := w.recorder.Deposit(ctx, a.Code, d("7"), ""); err != nil {
		t.Fatal(err)
	}

	m, err := w.reports.Monthly(ctx, 2024, time.June)
	if err != nil {
		t.Fatal(err)
	}
	want := report.MonthlyReport{
		Year:  2024,
		Month: time.June,
		Kinds: []report.KindVolume{
			{Kind: domain.TxDeposit, Count: 1, Volume: d("10")},
			{Kind: domain.TxWithdrawal, Count: 1, Volume: d("5.50")},
			{Kind: domain.TxTransfer, Count: 2, Volume: d("40")},
		},
		Count:  4,
		Volume: d("55.50"),
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("monthly report (-want +got):\n%s", diff)
	}

	for _, month := range []time.Month{0, 13} {
		if _, err := w.reports.Monthly(ctx, 2024, month); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("month %d: expected ErrValidation, got %v", month, err)
		}
	}
}

func TestInactiveKeysByAccount(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	c := w.client(t, "Owner")
	never := w.account(t, c.ID, "0")
	old := w.account(t, c.ID, "0")
	recent := w.account(t, c.ID, "0")

	w.clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := w.recorder.Deposit(ctx, old.Code, d("1"), ""); err != nil {
		t.Fatal(err)
	}
	w.clock = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if _, err := w.recorder.Deposit(ctx, recent.Code, d("1"), ""); err != nil {
		t.Fatal(err)
	}
	w.clock = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	inactive, err := w.reports.Inactive(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	var codes []string
	for _, ia := range inactive {
		codes = append(codes, ia.Account.Code)
	}
	if diff := cmp.Diff([]string{never.Code, old.Code}, codes); diff != "" {
		t.Fatalf("inactive accounts (-want +got):\n%s", diff)
	}
	if !inactive[0].LastActivity.IsZero() {
		t.Fatalf("never-used account should have no last activity, got %v", inactive[0].LastActivity)
	}
	if !inactive[1].LastActivity.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last activity %v", inactive[1].LastActivity)
	}
}

func TestBalancesSummaryAndClientReport(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	if _, err := w.reports.RichestAccount(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without accounts, got %v", err)
	}
	if _, err := w.reports.PoorestAccount(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without accounts, got %v", err)
	}

	c1 := w.client(t, "One")
	c2 := w.client(t, "Two")
	low := w.account(t, c1.ID, "20")
	high := w.account(t, c1.ID, "5000")
	mid := w.account(t, c2.ID, "300")
	if _, err := w.ledger.Debit(ctx, low.Code, d("70")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.recorder.Deposit(ctx, mid.Code, d("1"), ""); err != nil {
		t.Fatal(err)
	}

	richest, err := w.reports.RichestAccount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	poorest, err := w.reports.PoorestAccount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if richest.Code != high.Code || poorest.Code != low.Code {
		t.Fatalf("richest %s poorest %s", richest.Code, poorest.Code)
	}

	lows, err := w.reports.LowBalances(ctx, d("301"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lows) != 1 || lows[0].Code != low.Code {
		t.Fatalf("unexpected low balances %+v", lows)
	}

	s, err := w.reports.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Clients != 2 || s.Accounts != 3 || s.Transactions != 1 || !s.TotalBalance.Equal(d("5251")) {
		t.Fatalf("unexpected summary %+v", s)
	}

	rep, err := w.reports.ClientReport(ctx, c1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Accounts) != 2 || !rep.Total.Equal(d("4950")) || rep.Client.Name != "One" {
		t.Fatalf("unexpected client report %+v", rep)
	}
	if _, err := w.reports.ClientReport(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSuspiciousActivityOverStore(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	c := w.client(t, "S")
	a := w.account(t, c.ID, "0")

	big, err := w.recorder.Deposit(ctx, a.Code, d("15000"), "Rabat, Maroc")
	if err != nil {
		t.Fatal(err)
	}
	w.clock = w.clock.Add(10 * time.Minute)
	if _, err := w.recorder.Deposit(ctx, a.Code, d("5"), "Rabat, Maroc"); err != nil {
		t.Fatal(err)
	}

	got, err := w.reports.SuspiciousActivity(ctx, d("10000"), "Maroc")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != big.ID {
		t.Fatalf("unexpected suspicious set %+v", got)
	}
}
