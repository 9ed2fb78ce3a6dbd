package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	confirm     = flag.Bool("confirm", false, "Required to perform the destructive reset")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key. 0 = disabled")
)

// Tables are cleared facts-first so the reset stays valid even if a foreign
// key is ever added between coverage rows and the dimension tables.
var tables = []string{
	"coverage.broadband_data",
	"coverage.census_blocks",
	"coverage.providers",
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("-dsn not provided and DATABASE_URL not set")
	}
	if !*confirm {
		fatalf("Refusing to run without -confirm (this empties all coverage tables)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid racing a concurrent ingest
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	printCounts(ctx, tx, "Before")

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+t); err != nil {
			fatalf("truncate %s: %v", t, err)
		}
	}

	printCounts(ctx, tx, "After")

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Reset complete")
}

func printCounts(ctx context.Context, tx *sql.Tx, label string) {
	fmt.Printf("%s:", label)
	for _, t := range tables {
		var n int64
		if err := tx.QueryRowContext(ctx, "SELECT count(*) FROM "+t).Scan(&n); err != nil {
			fatalf("count %s: %v", t, err)
		}
		fmt.Printf(" %s=%d", t, n)
	}
	fmt.Println()
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
