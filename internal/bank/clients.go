package bank

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"bank-console/internal/domain"
	"bank-console/internal/store"

	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

type Clients struct {
	repo store.Repository
	opts options
}

func NewClients(repo store.Repository, opts ...Option) *Clients {
	return &Clients{repo: repo, opts: buildOptions(opts)}
}

func validateClient(name, email string) (string, string, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return "", "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return "", "", fmt.Errorf("%w: invalid email %q", domain.ErrValidation, email)
	}
	return name, email, nil
}

func (c *Clients) Add(ctx context.Context, name, email string) (domain.Client, error) {
	name, email, err := validateClient(name, email)
	if err != nil {
		return domain.Client{}, err
	}
	cl := domain.Client{Name: name, Email: email}
	err = c.repo.WithTx(ctx, func(tx store.Repository) error {
		id, err := tx.InsertClient(ctx, cl)
		if err != nil {
			return err
		}
		cl.ID = id
		return c.opts.journal(ctx, tx, "CLIENT_ADDED", aggregateClient, clientAggregateID(id), clientPayload{
			ClientID: id, Name: name, Email: email,
		})
	})
	if err != nil {
		return domain.Client{}, err
	}
	return cl, nil
}

// Update replaces name and email of an existing client.
func (c *Clients) Update(ctx context.Context, id int64, name, email string) (domain.Client, error) {
	name, email, err := validateClient(name, email)
	if err != nil {
		return domain.Client{}, err
	}
	cl := domain.Client{ID: id, Name: name, Email: email}
	err = c.repo.WithTx(ctx, func(tx store.Repository) error {
		if err := tx.UpdateClient(ctx, cl); err != nil {
			return notFound(err, "client %d", id)
		}
		return c.opts.journal(ctx, tx, "CLIENT_UPDATED", aggregateClient, clientAggregateID(id), clientPayload{
			ClientID: id, Name: name, Email: email,
		})
	})
	if err != nil {
		return domain.Client{}, err
	}
	return cl, nil
}

// Delete fails with ErrClientHasAccounts while the client still owns an
// account; nothing is changed in that case.
func (c *Clients) Delete(ctx context.Context, id int64) error {
	return c.repo.WithTx(ctx, func(tx store.Repository) error {
		if _, err := tx.ClientByID(ctx, id); err != nil {
			return notFound(err, "client %d", id)
		}
		accounts, err := tx.AccountsByClient(ctx, id)
		if err != nil {
			return err
		}
		if len(accounts) > 0 {
			return fmt.Errorf("%w: client %d has %d account(s)", domain.ErrClientHasAccounts, id, len(accounts))
		}
		if err := tx.DeleteClient(ctx, id); err != nil {
			return err
		}
		return c.opts.journal(ctx, tx, "CLIENT_DELETED", aggregateClient, clientAggregateID(id), clientPayload{ClientID: id})
	})
}

func (c *Clients) ByID(ctx context.Context, id int64) (domain.Client, error) {
	cl, err := c.repo.ClientByID(ctx, id)
	if err != nil {
		return domain.Client{}, notFound(err, "client %d", id)
	}
	return cl, nil
}

// SearchByName matches clients whose name contains fragment.
func (c *Clients) SearchByName(ctx context.Context, fragment string) ([]domain.Client, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrValidation)
	}
	return c.repo.SearchClientsByName(ctx, fragment)
}

func (c *Clients) List(ctx context.Context) ([]domain.Client, error) {
	return c.repo.ListClients(ctx)
}

// TotalBalance sums the balances of every account the client owns.
func (c *Clients) TotalBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	accounts, err := c.repo.AccountsByClient(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total, nil
}

func (c *Clients) CountAccounts(ctx context.Context, id int64) (int, error) {
	accounts, err := c.repo.AccountsByClient(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(accounts), nil
}

// Journal lists the client's journal entries in append order.
func (c *Clients) Journal(ctx context.Context, id int64) ([]domain.Event, error) {
	return c.repo.EventsFor(ctx, aggregateClient, clientAggregateID(id))
}
