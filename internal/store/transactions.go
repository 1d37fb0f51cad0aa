package store

import (
	"context"
	"fmt"
	"time"

	"bank-console/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const txColumns = `id, date, montant::text, type, lieu, id_compte`

func (s *Store) InsertTransaction(ctx context.Context, t domain.Transaction) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO transaction(date, montant, type, lieu, id_compte)
		 VALUES($1,$2,$3,$4,$5) RETURNING id`,
		t.Date, t.Amount.String(), string(t.Kind), t.Location, t.AccountID,
	).Scan(&id)
	if err != nil {
		return 0, storageErr(err)
	}
	return id, nil
}

func (s *Store) TransactionsByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE id_compte=$1 ORDER BY date DESC, id DESC`, accountID)
}

func (s *Store) TransactionsByKind(ctx context.Context, kind domain.TxKind) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE type=$1 ORDER BY date DESC, id DESC`, string(kind))
}

// TransactionsBetween is inclusive on both ends.
func (s *Store) TransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE date BETWEEN $1 AND $2 ORDER BY date DESC, id DESC`, from, to)
}

func (s *Store) TransactionsAbove(ctx context.Context, floor decimal.Decimal) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE montant > $1 ORDER BY montant DESC, id DESC`, floor.String())
}

func (s *Store) TransactionsAtLocation(ctx context.Context, location string) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE lieu=$1 ORDER BY date DESC, id DESC`, location)
}

func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transaction ORDER BY date DESC, id DESC`)
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	return affectedOne(s.db.Exec(ctx, `DELETE FROM transaction WHERE id=$1`, id))
}

func (s *Store) queryTransactions(ctx context.Context, sql string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	out, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func scanTransaction(row pgx.CollectableRow) (domain.Transaction, error) {
	var (
		t            domain.Transaction
		amount, kind string
	)
	if err := row.Scan(&t.ID, &t.Date, &amount, &kind, &t.Location, &t.AccountID); err != nil {
		return domain.Transaction{}, err
	}
	var err error
	if t.Amount, err = parseMoney(amount); err != nil {
		return domain.Transaction{}, err
	}
	k, ok := domain.ParseTxKind(kind)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%w: unknown transaction type %q", domain.ErrStorage, kind)
	}
	t.Kind = k
	return t, nil
}
