package store

import (
	"context"
	"fmt"

	"bank-console/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, code, solde::text, id_client, type_compte, decouvert::text, taux_interet::text`

func (s *Store) InsertAccount(ctx context.Context, a domain.Account) (int64, error) {
	var (
		sql   string
		extra decimal.Decimal
	)
	switch t := a.Terms.(type) {
	case domain.Checking:
		sql = `INSERT INTO compte(code, solde, id_client, type_compte, decouvert)
		       VALUES($1,$2,$3,'COURANT',$4) RETURNING id`
		extra = t.Overdraft
	case domain.Savings:
		sql = `INSERT INTO compte(code, solde, id_client, type_compte, taux_interet)
		       VALUES($1,$2,$3,'EPARGNE',$4) RETURNING id`
		extra = t.InterestRate
	default:
		return 0, fmt.Errorf("%w: unknown account type %T", domain.ErrValidation, a.Terms)
	}

	var id int64
	err := s.db.QueryRow(ctx, sql,
		a.Code, a.Balance.String(), a.ClientID, extra.String(),
	).Scan(&id)
	if err != nil {
		return 0, storageErr(err)
	}
	return id, nil
}

func (s *Store) AccountByCode(ctx context.Context, code string) (domain.Account, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+accountColumns+` FROM compte WHERE code=$1`, code)
	if err != nil {
		return domain.Account{}, storageErr(err)
	}
	return collectOneAccount(rows)
}

func (s *Store) AccountForUpdate(ctx context.Context, code string) (domain.Account, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+accountColumns+` FROM compte WHERE code=$1 FOR UPDATE`, code)
	if err != nil {
		return domain.Account{}, storageErr(err)
	}
	return collectOneAccount(rows)
}

func (s *Store) AccountsByClient(ctx context.Context, clientID int64) ([]domain.Account, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+accountColumns+` FROM compte WHERE id_client=$1 ORDER BY id`, clientID)
	if err != nil {
		return nil, storageErr(err)
	}
	return collectAccounts(rows)
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM compte ORDER BY id`)
	if err != nil {
		return nil, storageErr(err)
	}
	return collectAccounts(rows)
}

func (s *Store) UpdateBalance(ctx context.Context, code string, balance decimal.Decimal) error {
	return affectedOne(s.db.Exec(ctx,
		`UPDATE compte SET solde=$1 WHERE code=$2`, balance.String(), code))
}

func (s *Store) DeleteAccount(ctx context.Context, code string) error {
	return affectedOne(s.db.Exec(ctx, `DELETE FROM compte WHERE code=$1`, code))
}

func scanAccount(row pgx.CollectableRow) (domain.Account, error) {
	var (
		a               domain.Account
		balance, kind   string
		overdraft, rate *string
	)
	if err := row.Scan(&a.ID, &a.Code, &balance, &a.ClientID, &kind, &overdraft, &rate); err != nil {
		return domain.Account{}, err
	}

	var err error
	if a.Balance, err = parseMoney(balance); err != nil {
		return domain.Account{}, err
	}

	switch domain.AccountKind(kind) {
	case domain.KindChecking:
		od, err := parseOptMoney(overdraft)
		if err != nil {
			return domain.Account{}, err
		}
		a.Terms = domain.Checking{Overdraft: od}
	case domain.KindSavings:
		r, err := parseOptMoney(rate)
		if err != nil {
			return domain.Account{}, err
		}
		a.Terms = domain.Savings{InterestRate: r}
	default:
		return domain.Account{}, fmt.Errorf("%w: unknown account type %q", domain.ErrStorage, kind)
	}
	return a, nil
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	out, err := pgx.CollectRows(rows, scanAccount)
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func collectOneAccount(rows pgx.Rows) (domain.Account, error) {
	a, err := pgx.CollectExactlyOneRow(rows, scanAccount)
	if err != nil {
		return domain.Account{}, storageErr(err)
	}
	return a, nil
}
