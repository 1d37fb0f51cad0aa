package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bank-console/internal/domain"

	"github.com/gowebpki/jcs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL implementation of Repository.
type Store struct {
	pool *pgxpool.Pool
	db   dbtx
	inTx bool
}

var _ Repository = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool, db: pool} }

func (s *Store) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return storageErr(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, db: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr(err)
	}
	return nil
}

// storageErr translates driver errors into the domain taxonomy.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, domain.ErrStorage) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: duplicate value violates %s", domain.ErrValidation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: row still referenced (%s)", domain.ErrValidation, pgErr.ConstraintName)
		case "23514": // check_violation
			return fmt.Errorf("%w: check %s failed", domain.ErrValidation, pgErr.ConstraintName)
		case "22001": // string_data_right_truncation
			return fmt.Errorf("%w: value too long", domain.ErrValidation)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}

// affectedOne turns a zero-row UPDATE/DELETE into ErrNotFound.
func affectedOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Money columns are read as ::text so no float ever touches a balance.
func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad numeric %q: %w", domain.ErrStorage, s, err)
	}
	return d, nil
}

func parseOptMoney(s *string) (decimal.Decimal, error) {
	if s == nil {
		return decimal.Zero, nil
	}
	return parseMoney(*s)
}

// CanonicalPayload returns both representations stored in event_log:
// plain JSON bytes (cast to jsonb) and the RFC 8785 canonical string.
func CanonicalPayload(v any) (json.RawMessage, string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return nil, "", err
	}
	return json.RawMessage(raw), string(canon), nil
}
