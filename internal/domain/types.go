package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AccountKind values are the type_compte column values.
type AccountKind string

const (
	KindChecking AccountKind = "COURANT"
	KindSavings  AccountKind = "EPARGNE"
)

func (k AccountKind) Label() string {
	switch k {
	case KindChecking:
		return "Checking"
	case KindSavings:
		return "Savings"
	default:
		return string(k)
	}
}

// Terms holds the variant-specific part of an account.
// It is closed: only Checking and Savings implement it.
type Terms interface {
	kind() AccountKind
}

type Checking struct {
	Overdraft decimal.Decimal `json:"overdraft"`
}

type Savings struct {
	InterestRate decimal.Decimal `json:"interest_rate"`
}

func (Checking) kind() AccountKind { return KindChecking }
func (Savings) kind() AccountKind  { return KindSavings }

type Account struct {
	ID       int64           `json:"id"`
	Code     string          `json:"code"`
	Balance  decimal.Decimal `json:"balance"`
	ClientID int64           `json:"client_id"`
	Terms    Terms           `json:"-"`
}

// Kind returns "" when Terms is unset.
func (a Account) Kind() AccountKind {
	if a.Terms == nil {
		return ""
	}
	return a.Terms.kind()
}

// TxKind values are the transaction.type column values.
type TxKind string

const (
	TxDeposit    TxKind = "VERSEMENT"
	TxWithdrawal TxKind = "RETRAIT"
	TxTransfer   TxKind = "VIREMENT"
)

// TxKinds lists every kind in display order.
var TxKinds = []TxKind{TxDeposit, TxWithdrawal, TxTransfer}

func (k TxKind) Label() string {
	switch k {
	case TxDeposit:
		return "Deposit"
	case TxWithdrawal:
		return "Withdrawal"
	case TxTransfer:
		return "Transfer"
	default:
		return string(k)
	}
}

func ParseTxKind(s string) (TxKind, bool) {
	for _, k := range TxKinds {
		if s == string(k) {
			return k, true
		}
	}
	return "", false
}

type Transaction struct {
	ID        int64           `json:"id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      TxKind          `json:"kind"`
	Location  string          `json:"location"`
	AccountID int64           `json:"account_id"`
}

// Event is one journal entry. Canonical is the RFC 8785 form of Payload.
type Event struct {
	ID            uuid.UUID       `json:"event_id"`
	Type          string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
	Canonical     string          `json:"payload_canonical"`
	CreatedAt     time.Time       `json:"created_at"`
}
