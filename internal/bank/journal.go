package bank

import (
	"context"
	"strconv"

	"bank-console/internal/store"

	"github.com/shopspring/decimal"
)

const (
	aggregateAccount = "ACCOUNT"
	aggregateClient  = "CLIENT"
)

// Journal payloads. Amounts marshal as JSON strings.
type clientPayload struct {
	ClientID int64  `json:"client_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

type accountPayload struct {
	Code     string          `json:"code"`
	ClientID int64           `json:"client_id"`
	Kind     string          `json:"kind"`
	Balance  decimal.Decimal `json:"balance"`
}

type balancePayload struct {
	Code    string          `json:"code"`
	Before  decimal.Decimal `json:"before"`
	After   decimal.Decimal `json:"after"`
	Amount  decimal.Decimal `json:"amount"`
	TxID    int64           `json:"tx_id,omitempty"`
	Counter string          `json:"counterparty,omitempty"`
}

func (o options) journal(ctx context.Context, tx store.Repository, eventType, aggregateType, aggregateID string, payload any) error {
	return tx.AppendEvent(ctx, store.NewEvent{
		Type:          eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		CorrelationID: o.correlationID,
		Payload:       payload,
	})
}

func clientAggregateID(id int64) string { return strconv.FormatInt(id, 10) }
