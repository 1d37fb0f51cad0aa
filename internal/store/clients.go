package store

import (
	"context"
	"strings"

	"bank-console/internal/domain"

	"github.com/jackc/pgx/v5"
)

func (s *Store) InsertClient(ctx context.Context, c domain.Client) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO client(nom, email) VALUES($1,$2) RETURNING id`,
		c.Name, c.Email,
	).Scan(&id)
	if err != nil {
		return 0, storageErr(err)
	}
	return id, nil
}

func (s *Store) ClientByID(ctx context.Context, id int64) (domain.Client, error) {
	c := domain.Client{ID: id}
	err := s.db.QueryRow(ctx,
		`SELECT nom, email FROM client WHERE id=$1`, id,
	).Scan(&c.Name, &c.Email)
	if err != nil {
		return domain.Client{}, storageErr(err)
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.db.Query(ctx, `SELECT id, nom, email FROM client ORDER BY id`)
	if err != nil {
		return nil, storageErr(err)
	}
	return collectClients(rows)
}

func (s *Store) UpdateClient(ctx context.Context, c domain.Client) error {
	return affectedOne(s.db.Exec(ctx,
		`UPDATE client SET nom=$1, email=$2 WHERE id=$3`,
		c.Name, c.Email, c.ID,
	))
}

func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	return affectedOne(s.db.Exec(ctx, `DELETE FROM client WHERE id=$1`, id))
}

func (s *Store) SearchClientsByName(ctx context.Context, fragment string) ([]domain.Client, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, nom, email FROM client WHERE nom LIKE $1 ESCAPE '\' ORDER BY id`,
		"%"+likeEscaper.Replace(fragment)+"%",
	)
	if err != nil {
		return nil, storageErr(err)
	}
	return collectClients(rows)
}

// likeEscaper makes % and _ in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func collectClients(rows pgx.Rows) ([]domain.Client, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Client, error) {
		var c domain.Client
		err := row.Scan(&c.ID, &c.Name, &c.Email)
		return c, err
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}
