package report

import (
	"sort"
	"strings"
	"time"

	"bank-console/internal/domain"

	"github.com/shopspring/decimal"
)

// FrequencyWindow is the gap under which two consecutive transactions on
// the same account are both flagged.
const FrequencyWindow = 60 * time.Second

// Suspicious returns every transaction that
//   - exceeds threshold,
//   - has a location not containing country (skipped when country is empty), or
//   - sits less than FrequencyWindow from its neighbour on the same account.
//
// Each transaction appears once; the result is ordered by date, then id.
func Suspicious(txs []domain.Transaction, threshold decimal.Decimal, country string) []domain.Transaction {
	flagged := make(map[int64]domain.Transaction)

	for _, t := range txs {
		if t.Amount.GreaterThan(threshold) {
			flagged[t.ID] = t
			continue
		}
		if country != "" && !strings.Contains(t.Location, country) {
			flagged[t.ID] = t
		}
	}

	byAccount := make(map[int64][]domain.Transaction)
	for _, t := range txs {
		byAccount[t.AccountID] = append(byAccount[t.AccountID], t)
	}
	for _, list := range byAccount {
		sortChronological(list)
		for i := 0; i+1 < len(list); i++ {
			a, b := list[i], list[i+1]
			if b.Date.Sub(a.Date) < FrequencyWindow {
				flagged[a.ID] = a
				flagged[b.ID] = b
			}
		}
	}

	out := make([]domain.Transaction, 0, len(flagged))
	for _, t := range flagged {
		out = append(out, t)
	}
	sortChronological(out)
	return out
}

func sortChronological(txs []domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}
