package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"bank-console/internal/bank"
	"bank-console/internal/config"
	"bank-console/internal/report"
	"bank-console/internal/shell"
	"bank-console/internal/store"
	"bank-console/internal/store/memory"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func main() {
	start := time.Now()
	// Menus own stdout.
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(os.Getenv("BANK_CONFIG"))
	if err != nil {
		log.Fatalf("[startup] %v", err)
	}
	log.Printf("[startup] begin backend=%s migrate=%t", cfg.Backend, cfg.Database.Migrate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo store.Repository
	switch cfg.Backend {
	case config.BackendMemory:
		log.Printf("[startup] using in-memory storage, data is lost on exit")
		repo = memory.New()
	default:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("[startup] %v", err)
		}
		defer pool.Close()
		repo = store.New(pool)
	}

	session := uuid.NewString()
	opts := []bank.Option{bank.WithCorrelationID(session)}
	ledger := bank.NewLedger(repo, opts...)
	svc := shell.Services{
		Clients:  bank.NewClients(repo, opts...),
		Ledger:   ledger,
		Recorder: bank.NewRecorder(ledger),
		Reports:  report.New(repo),
	}
	sh := shell.New(os.Stdin, os.Stdout, svc, shell.Settings{
		UsualCountry: cfg.Console.UsualCountry,
		Currency:     cfg.Console.Currency,
		Color:        cfg.Console.Color,
		ListLimit:    cfg.Console.ListLimit,
	})

	log.Printf("[startup] ready in %s, session=%s", time.Since(start).Truncate(time.Millisecond), session)

	if err := sh.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[session] ended with error: %v", err)
		os.Exit(1)
	}
	log.Printf("[session] closed")
}

func openPool(ctx context.Context, db config.Database) (*pgxpool.Pool, error) {
	cpu := runtime.GOMAXPROCS(0)
	maxConns := db.MaxConns
	if maxConns == 0 {
		// One user at a time; a handful of connections is plenty.
		maxConns = clamp(cpu, 2, 8)
	}
	log.Printf("[startup] cpu=%d maxConns=%d", cpu, maxConns)

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	log.Printf("[startup] parsing DB config")
	pcfg, err := pgxpool.ParseConfig(db.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn failed: %w", err)
	}
	pcfg.MaxConns = int32(maxConns)
	pcfg.MinConns = 1
	pcfg.HealthCheckPeriod = 10 * time.Second
	pcfg.MaxConnLifetime = 30 * time.Minute
	pcfg.MaxConnIdleTime = 5 * time.Minute

	log.Printf("[startup] connecting to DB")
	pool, err := pgxpool.NewWithConfig(startCtx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}

	log.Printf("[startup] ping DB")
	if err := pool.Ping(startCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	if !db.Migrate {
		log.Printf("[startup] migrations disabled")
		return pool, nil
	}
	log.Printf("[startup] running migrations")
	applied, err := store.Migrate(startCtx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	log.Printf("[startup] migrations complete applied=%v", applied)
	return pool, nil
}
