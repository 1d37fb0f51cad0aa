package report_test

import (
	"testing"
	"time"

	"bank-console/internal/domain"
	"bank-console/internal/report"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

var base = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

func tx(id, account int64, offset time.Duration, amount, location string) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		Date:      base.Add(offset),
		Amount:    decimal.RequireFromString(amount),
		Kind:      domain.TxDeposit,
		Location:  location,
		AccountID: account,
	}
}

func ids(txs []domain.Transaction) []int64 {
	out := []int64{}
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestSuspicious(t *testing.T) {
	threshold := decimal.NewFromInt(10000)

	cases := []struct {
		name    string
		txs     []domain.Transaction
		country string
		want    []int64
	}{
		{
			name: "amount above threshold",
			txs: []domain.Transaction{
				tx(1, 1, 0, "15000", "Rabat, Maroc"),
				tx(2, 1, time.Hour, "10000", "Rabat, Maroc"),
			},
			country: "Maroc",
			want:    []int64{1},
		},
		{
			name: "same account 30 seconds apart",
			txs: []domain.Transaction{
				tx(1, 7, 0, "10", "Maroc"),
				tx(2, 7, 30*time.Second, "10", "Maroc"),
			},
			country: "Maroc",
			want:    []int64{1, 2},
		},
		{
			name: "same account 120 seconds apart",
			txs: []domain.Transaction{
				tx(1, 7, 0, "10", "Maroc"),
				tx(2, 7, 120*time.Second, "10", "Maroc"),
			},
			country: "Maroc",
			want:    []int64{},
		},
		{
			name: "exactly one minute is not frequent",
			txs: []domain.Transaction{
				tx(1, 7, 0, "10", "Maroc"),
				tx(2, 7, time.Minute, "10", "Maroc"),
			},
			country: "Maroc",
			want:    []int64{},
		},
		{
			name: "close in time on different accounts",
			txs: []domain.Transaction{
				tx(1, 1, 0, "10", "Maroc"),
				tx(2, 2, 5*time.Second, "10", "Maroc"),
			},
			country: "Maroc",
			want:    []int64{},
		},
		{
			name: "only adjacent pairs count",
			txs: []domain.Transaction{
				tx(3, 4, 100*time.Second, "10", "Maroc"),
				tx(1, 4, 0, "10", "Maroc"),
				tx(2, 4, 50*time.Second, "10", "Maroc"),
				tx(4, 4, 500*time.Second, "10", "Maroc"),
			},
			country: "Maroc",
			want:    []int64{1, 2, 3},
		},
		{
			name: "foreign location",
			txs: []domain.Transaction{
				tx(1, 1, 0, "10", "Paris, France"),
				tx(2, 2, 0, "10", "Fes, Maroc"),
			},
			country: "Maroc",
			want:    []int64{1},
		},
		{
			name: "empty country disables location rule",
			txs: []domain.Transaction{
				tx(1, 1, 0, "10", "Paris, France"),
			},
			country: "",
			want:    []int64{},
		},
		{
			name: "flagged by several rules appears once",
			txs: []domain.Transaction{
				tx(1, 9, 0, "20000", "Madrid"),
				tx(2, 9, 10*time.Second, "20", "Madrid"),
			},
			country: "Maroc",
			want:    []int64{1, 2},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(report.Suspicious(tc.txs, threshold, tc.country))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("flagged ids (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSuspiciousDoesNotReorderInput(t *testing.T) {
	in := []domain.Transaction{
		tx(2, 1, time.Second, "1", "Maroc"),
		tx(1, 1, 0, "1", "Maroc"),
	}
	report.Suspicious(in, decimal.NewFromInt(100), "Maroc")
	if in[0].ID != 2 || in[1].ID != 1 {
		t.Fatalf("input slice was reordered: %v", ids(in))
	}
}
