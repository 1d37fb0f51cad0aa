package shell

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"bank-console/internal/domain"

	"github.com/shopspring/decimal"
)

func (s *Shell) mainMenu() menu {
	return menu{title: "Bank Console", items: []item{
		{"Clients", s.submenu(s.clientsMenu())},
		{"Accounts", s.submenu(s.accountsMenu())},
		{"Transactions", s.submenu(s.transactionsMenu())},
		{"Reports", s.submenu(s.reportsMenu())},
		{"Alerts", s.submenu(s.alertsMenu())},
	}}
}

func (s *Shell) clientsMenu() menu {
	return menu{title: "Clients", items: []item{
		{"Add a client", s.addClient},
		{"Update a client", s.updateClient},
		{"Delete a client", s.deleteClient},
		{"Find a client by ID", s.findClient},
		{"Search clients by name", s.searchClients},
		{"List all clients", s.listClients},
		{"Client report", s.clientReport},
		{"Client journal", s.clientJournal},
	}}
}

func (s *Shell) accountsMenu() menu {
	return menu{title: "Accounts", items: []item{
		{"Open a checking account", s.openChecking},
		{"Open a savings account", s.openSavings},
		{"Find an account by code", s.findAccount},
		{"Accounts of a client", s.clientAccounts},
		{"List all accounts", s.listAccounts},
		{"Highest balance", s.richestAccount},
		{"Lowest balance", s.poorestAccount},
		{"Correct a balance", s.correctBalance},
		{"Delete an account", s.deleteAccount},
	}}
}

func (s *Shell) transactionsMenu() menu {
	return menu{title: "Transactions", items: []item{
		{"Deposit", s.deposit},
		{"Withdrawal", s.withdraw},
		{"Transfer", s.transfer},
		{"Account history", s.history},
		{fmt.Sprintf("Latest %d transactions", s.set.ListLimit), s.listTransactions},
		{"Filter by type", s.filterByKind},
		{"Filter by minimum amount", s.filterByAmount},
		{"Filter by location", s.filterByLocation},
		{"Filter by period", s.filterByPeriod},
		{"Totals by type", s.totalsByKind},
		{"Totals by month", s.totalsByMonth},
		{"Account journal", s.accountJournal},
		{"Delete a transaction", s.deleteTransaction},
	}}
}

func (s *Shell) reportsMenu() menu {
	return menu{title: "Reports", items: []item{
		{"Top 5 clients by balance", s.topClients},
		{"Monthly report", s.monthly},
		{"Suspicious transactions", s.suspicious},
		{"Inactive accounts", s.inactive},
		{"System summary", s.summary},
	}}
}

func (s *Shell) alertsMenu() menu {
	return menu{title: "Alerts", items: []item{
		{"Low balances", s.lowBalances},
		{"Inactive accounts", s.inactive},
		{"Suspicious transactions", s.suspicious},
	}}
}

// ---- clients

func (s *Shell) addClient(ctx context.Context) error {
	name, err := s.readLine("Name: ")
	if err != nil {
		return err
	}
	email, err := s.readLine("Email: ")
	if err != nil {
		return err
	}
	c, err := s.svc.Clients.Add(ctx, name, email)
	if err != nil {
		return err
	}
	s.ok("Client added with ID %d.", c.ID)
	return nil
}

func (s *Shell) updateClient(ctx context.Context) error {
	id, err := s.readInt("Client ID: ")
	if err != nil {
		return err
	}
	name, err := s.readLine("New name: ")
	if err != nil {
		return err
	}
	email, err := s.readLine("New email: ")
	if err != nil {
		return err
	}
	if _, err := s.svc.Clients.Update(ctx, id, name, email); err != nil {
		return err
	}
	s.ok("Client %d updated.", id)
	return nil
}

func (s *Shell) deleteClient(ctx context.Context) error {
	id, err := s.readInt("Client ID: ")
	if err != nil {
		return err
	}
	ok, err := s.confirm(fmt.Sprintf("Delete client %d?", id))
	if err != nil || !ok {
		return err
	}
	if err := s.svc.Clients.Delete(ctx, id); err != nil {
		return err
	}
	s.ok("Client %d deleted.", id)
	return nil
}

func (s *Shell) findClient(ctx context.Context) error {
	id, err := s.readInt("Client ID: ")
	if err != nil {
		return err
	}
	c, err := s.svc.Clients.ByID(ctx, id)
	if err != nil {
		return err
	}
	s.clientTable([]domain.Client{c})
	return nil
}

func (s *Shell) searchClients(ctx context.Context) error {
	name, err := s.readLine("Name contains: ")
	if err != nil {
		return err
	}
	clients, err := s.svc.Clients.SearchByName(ctx, name)
	if err != nil {
		return err
	}
	s.clientTable(clients)
	return nil
}

func (s *Shell) listClients(ctx context.Context) error {
	clients, err := s.svc.Clients.List(ctx)
	if err != nil {
		return err
	}
	s.clientTable(clients)
	return nil
}

func (s *Shell) clientReport(ctx context.Context) error {
	id, err := s.readInt("Client ID: ")
	if err != nil {
		return err
	}
	rep, err := s.svc.Reports.ClientReport(ctx, id)
	if err != nil {
		return err
	}
	s.heading("Client report")
	fmt.Fprintf(s.out, "Name:          %s\n", rep.Client.Name)
	fmt.Fprintf(s.out, "Email:         %s\n", rep.Client.Email)
	fmt.Fprintf(s.out, "Accounts:      %d\n", len(rep.Accounts))
	fmt.Fprintf(s.out, "Total balance: %s\n", s.money(rep.Total))
	if len(rep.Accounts) > 0 {
		s.println()
		s.accountTable(rep.Accounts)
	}
	return nil
}

func (s *Shell) clientJournal(ctx context.Context) error {
	id, err := s.readInt("Client ID: ")
	if err != nil {
		return err
	}
	events, err := s.svc.Clients.Journal(ctx, id)
	if err != nil {
		return err
	}
	s.eventTable(events)
	return nil
}

// ---- accounts

func (s *Shell) openChecking(ctx context.Context) error {
	clientID, err := s.readInt("Client ID: ")
	if err != nil {
		return err
	}
	initial, err := s.readAmount("Initial balance: ")
	if err != nil {
		return err
	}
	overdraft, err := s.readAmount("Overdraft limit: ")
	if err != nil {
		return err
	}
	a, err := s.svc.Ledger.OpenChecking(ctx, clientID, initial, overdraft)
	if err != nil {
		return err
	}
	s.ok("Checking account %s opened.", a.Code)
	return nil
}

func (s *Shell) openSavings(ctx context.Context) error {
	clientID, err := s.readInt("Client ID: ")
	if err != nil {
		return err
	}
	initial, err := s.readAmount("Initial balance: ")
	if err != nil {
		return err
	}
	rate, err := s.readAmount("Interest rate (%): ")
	if err != nil {
		return err
	}
	a, err := s.svc.Ledger.OpenSavings(ctx, clientID, initial, rate)
	if err != nil {
		return err
	}
	s.ok("Savings account %s opened.", a.Code)
	return nil
}

func (s *Shell) findAccount(ctx context.Context) error {
	code, err := s.readLine("Account code: ")
	if err != nil {
		return err
	}
	a, err := s.svc.Ledger.Account(ctx, code)
	if err != nil {
		return err
	}
	s.accountLine(a)
	return nil
}

func (s *Shell) clientAccounts(ctx context.Context) error {
	clientID, err := s.readInt("Client ID: ")
	if err != nil {
		return err
	}
	accounts, err := s.svc.Ledger.AccountsOf(ctx, clientID)
	if err != nil {
		return err
	}
	s.accountTable(accounts)
	return nil
}

func (s *Shell) listAccounts(ctx context.Context) error {
	accounts, err := s.svc.Ledger.Accounts(ctx)
	if err != nil {
		return err
	}
	s.accountTable(accounts)
	return nil
}

func (s *Shell) richestAccount(ctx context.Context) error {
	a, err := s.svc.Reports.RichestAccount(ctx)
	if err != nil {
		return err
	}
	s.accountLine(a)
	return nil
}

func (s *Shell) poorestAccount(ctx context.Context) error {
	a, err := s.svc.Reports.PoorestAccount(ctx)
	if err != nil {
		return err
	}
	s.accountLine(a)
	return nil
}

func (s *Shell) correctBalance(ctx context.Context) error {
	code, err := s.readLine("Account code: ")
	if err != nil {
		return err
	}
	balance, err := s.readAmount("New balance: ")
	if err != nil {
		return err
	}
	ok, err := s.confirm(fmt.Sprintf("Set the balance of %s to %s?", code, s.money(balance)))
	if err != nil || !ok {
		return err
	}
	a, err := s.svc.Ledger.SetBalance(ctx, code, balance)
	if err != nil {
		return err
	}
	s.ok("Balance of %s is now %s.", a.Code, s.money(a.Balance))
	return nil
}

func (s *Shell) deleteAccount(ctx context.Context) error {
	code, err := s.readLine("Account code: ")
	if err != nil {
		return err
	}
	ok, err := s.confirm(fmt.Sprintf("Delete account %s and its transactions?", code))
	if err != nil || !ok {
		return err
	}
	if err := s.svc.Ledger.DeleteAccount(ctx, code); err != nil {
		return err
	}
	s.ok("Account %s deleted.", code)
	return nil
}

// ---- transactions

func (s *Shell) deposit(ctx context.Context) error {
	code, err := s.readLine("Account code: ")
	if err != nil {
		return err
	}
	amount, err := s.readAmount("Amount: ")
	if err != nil {
		return err
	}
	location, err := s.readLine("Location (blank for Agency): ")
	if err != nil {
		return err
	}
	if _, err := s.svc.Recorder.Deposit(ctx, code, amount, location); err != nil {
		return err
	}
	s.ok("Deposit of %s to %s done.", s.money(amount.Round(2)), code)
	return nil
}

func (s *Shell) withdraw(ctx context.Context) error {
	code, err := s.readLine("Account code: ")
	if err != nil {
		return err
	}
	amount, err := s.readAmount("Amount: ")
	if err != nil {
		return err
	}
	location, err := s.readLine("Location (blank for Agency): ")
	if err != nil {
		return err
	}
	if _, err := s.svc.Recorder.Withdraw(ctx, code, amount, location); err != nil {
		return err
	}
	s.ok("Withdrawal of %s from %s done.", s.money(amount.Round(2)), code)
	return nil
}

func (s *Shell) transfer(ctx context.Context) error {
	src, err := s.readLine("Source account code: ")
	if err != nil {
		return err
	}
	dst, err := s.readLine("Destination account code: ")
	if err != nil {
		return err
	}
	amount, err := s.readAmount("Amount: ")
	if err != nil {
		return err
	}
	if _, _, err := s.svc.Recorder.Transfer(ctx, src, dst, amount); err != nil {
		return err
	}
	s.ok("Transfer of %s from %s to %s done.", s.money(amount.Round(2)), src, dst)
	return nil
}

func (s *Shell) history(ctx context.Context) error {
	code, err := s.readLine("Account code: ")
	if err != nil {
		return err
	}
	txs, err := s.svc.Recorder.History(ctx, code)
	if err != nil {
		return err
	}
	s.transactionTable(txs)
	if len(txs) == 0 {
		return nil
	}
	total, err := s.svc.Recorder.Total(ctx, code)
	if err != nil {
		return err
	}
	avg, err := s.svc.Recorder.Average(ctx, code)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Total %s, average %s over %d transaction(s).\n", s.money(total), s.money(avg), len(txs))
	return nil
}

func (s *Shell) listTransactions(ctx context.Context) error {
	txs, err := s.svc.Recorder.All(ctx)
	if err != nil {
		return err
	}
	if len(txs) > s.set.ListLimit {
		txs = txs[:s.set.ListLimit]
	}
	s.transactionTable(txs)
	return nil
}

func (s *Shell) filterByKind(ctx context.Context) error {
	for i, k := range domain.TxKinds {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, k.Label())
	}
	n, err := s.readInt("Type: ")
	if err != nil {
		return err
	}
	if n < 1 || n > int64(len(domain.TxKinds)) {
		s.warn("Invalid choice.")
		return nil
	}
	txs, err := s.svc.Recorder.ByKind(ctx, domain.TxKinds[n-1])
	if err != nil {
		return err
	}
	s.transactionTable(txs)
	return nil
}

func (s *Shell) filterByAmount(ctx context.Context) error {
	floor, err := s.readAmount("Minimum amount: ")
	if err != nil {
		return err
	}
	txs, err := s.svc.Recorder.AmountAbove(ctx, floor)
	if err != nil {
		return err
	}
	s.transactionTable(txs)
	return nil
}

func (s *Shell) filterByLocation(ctx context.Context) error {
	location, err := s.readLine("Location: ")
	if err != nil {
		return err
	}
	txs, err := s.svc.Recorder.AtLocation(ctx, location)
	if err != nil {
		return err
	}
	s.transactionTable(txs)
	return nil
}

// filterByPeriod includes the whole of the end day.
func (s *Shell) filterByPeriod(ctx context.Context) error {
	from, err := s.readDate("From (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	to, err := s.readDate("To (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	txs, err := s.svc.Recorder.Between(ctx, from, to.AddDate(0, 0, 1).Add(-time.Microsecond))
	if err != nil {
		return err
	}
	s.transactionTable(txs)
	return nil
}

func (s *Shell) totalsByKind(ctx context.Context) error {
	groups, err := s.svc.Recorder.GroupByKind(ctx)
	if err != nil {
		return err
	}
	totals, err := s.svc.Recorder.TotalsByKind(ctx)
	if err != nil {
		return err
	}
	s.table("Type\tCount\tTotal", func(w io.Writer) {
		for _, k := range domain.TxKinds {
			fmt.Fprintf(w, "%s\t%d\t%s\n", k.Label(), len(groups[k]), s.money(totals[k]))
		}
	})
	return nil
}

func (s *Shell) totalsByMonth(ctx context.Context) error {
	groups, err := s.svc.Recorder.GroupByMonth(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		s.warn("No transactions.")
		return nil
	}
	months := make([]string, 0, len(groups))
	for m := range groups {
		months = append(months, m)
	}
	sort.Strings(months)
	s.table("Month\tCount\tVolume", func(w io.Writer) {
		for _, m := range months {
			fmt.Fprintf(w, "%s\t%d\t%s\n", m, len(groups[m]), s.money(sumAmounts(groups[m])))
		}
	})
	return nil
}

func (s *Shell) accountJournal(ctx context.Context) error {
	code, err := s.readLine("Account code: ")
	if err != nil {
		return err
	}
	events, err := s.svc.Ledger.Journal(ctx, code)
	if err != nil {
		return err
	}
	s.eventTable(events)
	return nil
}

func (s *Shell) deleteTransaction(ctx context.Context) error {
	id, err := s.readInt("Transaction ID: ")
	if err != nil {
		return err
	}
	ok, err := s.confirm(fmt.Sprintf("Delete transaction %d? Balances are not adjusted.", id))
	if err != nil || !ok {
		return err
	}
	if err := s.svc.Recorder.Delete(ctx, id); err != nil {
		return err
	}
	s.ok("Transaction %d deleted.", id)
	return nil
}

// ---- reports and alerts

func (s *Shell) topClients(ctx context.Context) error {
	top, err := s.svc.Reports.TopClients(ctx, 5)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		s.warn("No clients.")
		return nil
	}
	s.heading("Top 5 clients by total balance")
	s.table("#\tClient\tAccounts\tTotal", func(w io.Writer) {
		for i, cb := range top {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i+1, cb.Client.Name, cb.Accounts, s.money(cb.Total))
		}
	})
	return nil
}

func (s *Shell) monthly(ctx context.Context) error {
	month, err := s.readInt("Month (1-12): ")
	if err != nil {
		return err
	}
	year, err := s.readInt("Year: ")
	if err != nil {
		return err
	}
	m, err := s.svc.Reports.Monthly(ctx, int(year), time.Month(month))
	if err != nil {
		return err
	}
	s.heading(fmt.Sprintf("Monthly report %02d/%d", int(m.Month), m.Year))
	fmt.Fprintf(s.out, "Transactions: %d\n", m.Count)
	s.table("Type\tCount\tVolume", func(w io.Writer) {
		for _, kv := range m.Kinds {
			fmt.Fprintf(w, "%s\t%d\t%s\n", kv.Kind.Label(), kv.Count, s.money(kv.Volume))
		}
	})
	fmt.Fprintf(s.out, "Total volume: %s\n", s.money(m.Volume))
	return nil
}

func (s *Shell) suspicious(ctx context.Context) error {
	threshold, err := s.readAmount("Amount threshold (e.g. 10000): ")
	if err != nil {
		return err
	}
	txs, err := s.svc.Reports.SuspiciousActivity(ctx, threshold, s.set.UsualCountry)
	if err != nil {
		return err
	}
	s.heading("Suspicious transactions")
	if len(txs) == 0 {
		s.ok("No suspicious transaction detected.")
		return nil
	}
	s.warn("%d suspicious transaction(s).", len(txs))
	s.transactionTable(txs)
	return nil
}

func (s *Shell) inactive(ctx context.Context) error {
	days, err := s.readInt("Days without activity: ")
	if err != nil {
		return err
	}
	accounts, err := s.svc.Reports.Inactive(ctx, int(days))
	if err != nil {
		return err
	}
	s.heading("Inactive accounts")
	fmt.Fprintf(s.out, "Threshold: %d day(s), inactive accounts: %d\n", days, len(accounts))
	if len(accounts) == 0 {
		return nil
	}
	s.table("Code\tBalance\tLast activity", func(w io.Writer) {
		for _, ia := range accounts {
			last := "never"
			if !ia.LastActivity.IsZero() {
				last = ia.LastActivity.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ia.Account.Code, s.money(ia.Account.Balance), last)
		}
	})
	return nil
}

func (s *Shell) summary(ctx context.Context) error {
	sum, err := s.svc.Reports.Summary(ctx)
	if err != nil {
		return err
	}
	s.heading("System summary")
	fmt.Fprintf(s.out, "Clients:       %d\n", sum.Clients)
	fmt.Fprintf(s.out, "Accounts:      %d\n", sum.Accounts)
	fmt.Fprintf(s.out, "Transactions:  %d\n", sum.Transactions)
	fmt.Fprintf(s.out, "Total balance: %s\n", s.money(sum.TotalBalance))
	return nil
}

func (s *Shell) lowBalances(ctx context.Context) error {
	threshold, err := s.readAmount("Alert threshold: ")
	if err != nil {
		return err
	}
	accounts, err := s.svc.Reports.LowBalances(ctx, threshold)
	if err != nil {
		return err
	}
	s.heading("Low balances")
	fmt.Fprintf(s.out, "Below %s: %d account(s)\n", s.money(threshold), len(accounts))
	if len(accounts) > 0 {
		s.accountTable(accounts)
	}
	return nil
}

func (s *Shell) eventTable(events []domain.Event) {
	if len(events) == 0 {
		s.warn("No journal entries.")
		return
	}
	s.table("Time\tEvent\tPayload", func(w io.Writer) {
		for _, ev := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), ev.Type, ev.Canonical)
		}
	})
}

func sumAmounts(txs []domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
