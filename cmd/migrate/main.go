package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/carwash/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envPostgresDSN = "CARWASH_POSTGRES_DSN"
)

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

// run разбирает флаги и применяет миграции. Возвращает код выхода.
func run(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		direction string
		steps     int
		dsn       string
	)
	fs.StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	fs.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+")")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	direction = strings.ToLower(strings.TrimSpace(direction))
	switch direction {
	case "up", "down", "status":
	default:
		fmt.Fprintf(stderr, "unsupported direction: %s (use up|down|status)\n", direction)
		return 2
	}

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(getenv(envPostgresDSN))
	}
	if dsn == "" {
		fmt.Fprintf(stderr, "%s (or -dsn) is required\n", envPostgresDSN)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn, postgres.DefaultPoolConfig())
	if err != nil {
		fmt.Fprintf(stderr, "open postgres store: %v\n", err)
		return 1
	}
	defer store.Close()

	switch direction {
	case "up":
		err = store.MigrateUp(ctx, steps)
	case "down":
		err = store.MigrateDown(ctx, steps)
	}
	if err != nil {
		fmt.Fprintf(stderr, "migrate %s failed: %v\n", direction, err)
		return 1
	}

	state, err := store.MigrationStatus(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "migration status failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "migrate %s ok: version=%d applied=%d known=%d\n", direction, state.Version, state.Applied, state.Known)
	return 0
}
