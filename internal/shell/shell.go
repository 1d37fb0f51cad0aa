// Package shell is the interactive console: numbered menus read from an
// io.Reader, results written to an io.Writer.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"bank-console/internal/bank"
	"bank-console/internal/domain"
	"bank-console/internal/report"

	"github.com/gookit/color"
	"github.com/shopspring/decimal"
)

type Services struct {
	Clients  *bank.Clients
	Ledger   *bank.Ledger
	Recorder *bank.Recorder
	Reports  *report.Reports
}

type Settings struct {
	// UsualCountry feeds the location rule of the suspicious-activity scan.
	UsualCountry string
	Currency     string
	Color        bool
	// ListLimit caps "list recent transactions".
	ListLimit int
}

type Shell struct {
	in  *bufio.Scanner
	out io.Writer
	svc Services
	set Settings
	log *log.Logger
}

type Option func(*Shell)

// WithLogger receives storage failures, which the console only summarizes.
func WithLogger(l *log.Logger) Option {
	return func(s *Shell) { s.log = l }
}

func New(in io.Reader, out io.Writer, svc Services, set Settings, opts ...Option) *Shell {
	if set.ListLimit <= 0 {
		set.ListLimit = 20
	}
	s := &Shell{
		in:  bufio.NewScanner(in),
		out: out,
		svc: svc,
		set: set,
		log: log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run shows the main menu until the user quits, input ends, or ctx is
// cancelled. Quitting and end of input both return nil.
func (s *Shell) Run(ctx context.Context) error {
	top := s.mainMenu()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.choose(top, "Quit")
		if errors.Is(err, io.EOF) {
			s.println("\nGoodbye.")
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			s.println("Goodbye.")
			return nil
		}
		if err := top.items[n-1].run(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				s.println("\nGoodbye.")
				return nil
			}
			return err
		}
	}
}

type item struct {
	label string
	run   func(ctx context.Context) error
}

type menu struct {
	title string
	items []item
}

// choose prints m and returns a valid choice; 0 is the zero entry.
func (s *Shell) choose(m menu, zero string) (int, error) {
	for {
		s.heading(m.title)
		for i, it := range m.items {
			fmt.Fprintf(s.out, "%d. %s\n", i+1, it.label)
		}
		fmt.Fprintf(s.out, "0. %s\n", zero)

		n, err := s.readInt("Choice: ")
		if err != nil {
			return 0, err
		}
		if n >= 0 && n <= int64(len(m.items)) {
			return int(n), nil
		}
		s.warn("Invalid choice.")
	}
}

// submenu runs one action of m. Operation errors are reported here; only
// end of input is returned.
func (s *Shell) submenu(m menu) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := s.choose(m, "Back")
		if err != nil || n == 0 {
			return err
		}
		if err := m.items[n-1].run(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			s.fail(err)
		}
		return nil
	}
}

// ---- input

func (s *Shell) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) readInt(prompt string) (int64, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(line, 10, 64)
		if err == nil {
			return n, nil
		}
		s.warn("Please enter a whole number.")
	}
}

// readAmount accepts "12.50" and "12,50".
func (s *Shell) readAmount(prompt string) (decimal.Decimal, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(strings.Replace(line, ",", ".", 1))
		if err == nil {
			return d, nil
		}
		s.warn("Please enter a number, for example 250.00.")
	}
}

func (s *Shell) readDate(prompt string) (time.Time, error) {
	for {
		line, err := s.readLine(prompt)
		if err != nil {
			return time.Time{}, err
		}
		t, err := time.ParseInLocation("2006-01-02", line, time.Local)
		if err == nil {
			return t, nil
		}
		s.warn("Please enter a date as YYYY-MM-DD.")
	}
}

// confirm is true only for an explicit "yes".
func (s *Shell) confirm(prompt string) (bool, error) {
	line, err := s.readLine(prompt + " Type yes to confirm: ")
	if err != nil {
		return false, err
	}
	if strings.EqualFold(line, "yes") {
		return true, nil
	}
	s.warn("Cancelled.")
	return false, nil
}

// ---- output

func (s *Shell) paint(c color.Color, msg string) string {
	if !s.set.Color {
		return msg
	}
	return c.Sprint(msg)
}

func (s *Shell) println(a ...any) { fmt.Fprintln(s.out, a...) }

func (s *Shell) heading(title string) {
	fmt.Fprintf(s.out, "\n%s\n", s.paint(color.Cyan, "=== "+title+" ==="))
}

func (s *Shell) ok(format string, args ...any) {
	fmt.Fprintln(s.out, s.paint(color.Green, fmt.Sprintf(format, args...)))
}

func (s *Shell) warn(format string, args ...any) {
	fmt.Fprintln(s.out, s.paint(color.Yellow, fmt.Sprintf(format, args...)))
}

func (s *Shell) fail(err error) {
	if errors.Is(err, domain.ErrStorage) {
		s.log.Printf("[session] %v", err)
	}
	fmt.Fprintln(s.out, s.paint(color.Red, messageFor(err)))
}

func (s *Shell) money(d decimal.Decimal) string {
	if s.set.Currency == "" {
		return d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + s.set.Currency
}

func (s *Shell) table(header string, rows func(w io.Writer)) {
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	tw.Flush()
}

func (s *Shell) clientTable(clients []domain.Client) {
	if len(clients) == 0 {
		s.warn("No clients.")
		return
	}
	s.table("ID\tName\tEmail", func(w io.Writer) {
		for _, c := range clients {
			fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Email)
		}
	})
}

func (s *Shell) accountTable(accounts []domain.Account) {
	if len(accounts) == 0 {
		s.warn("No accounts.")
		return
	}
	s.table("Code\tType\tBalance\tClient\tTerms", func(w io.Writer) {
		for _, a := range accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", a.Code, a.Kind().Label(), s.money(a.Balance), a.ClientID, s.terms(a))
		}
	})
}

func (s *Shell) terms(a domain.Account) string {
	switch t := a.Terms.(type) {
	case domain.Checking:
		return "overdraft " + s.money(t.Overdraft)
	case domain.Savings:
		return "rate " + t.InterestRate.StringFixed(2) + "%"
	default:
		return ""
	}
}

func (s *Shell) transactionTable(txs []domain.Transaction) {
	if len(txs) == 0 {
		s.warn("No transactions.")
		return
	}
	s.table("ID\tDate\tType\tAmount\tLocation\tAccount", func(w io.Writer) {
		for _, t := range txs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
				t.ID, t.Date.Local().Format("2006-01-02 15:04:05"), t.Kind.Label(), s.money(t.Amount), t.Location, t.AccountID)
		}
	})
}

func (s *Shell) accountLine(a domain.Account) {
	fmt.Fprintf(s.out, "%s  %s  balance %s  client %d  %s\n",
		a.Code, a.Kind().Label(), s.money(a.Balance), a.ClientID, s.terms(a))
}
