// Command habitsctl holds operational tasks for the habits API: waiting for
// Postgres to accept connections and applying the embedded schema.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	_ "github.com/lib/pq"

	"habittracker/habits-api/internal/migrations"
)

type dbFlags struct {
	DSN string `help:"Postgres connection string." env:"DATABASE_URL" required:""`
}

func (f dbFlags) open() (*sql.DB, error) {
	db, err := sql.Open("postgres", f.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

type waitCmd struct {
	dbFlags  `embed:""`
	Timeout  time.Duration `help:"Give up after this long." default:"60s" env:"WAIT_FOR_POSTGRES_TIMEOUT"`
	Interval time.Duration `help:"Delay between pings." default:"2s"`
}

func (c *waitCmd) Run(ctx context.Context) error {
	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	deadline := time.Now().Add(c.Timeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			fmt.Println("postgres ready")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres not ready within %s: %w", c.Timeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Interval):
		}
	}
}

type migrateCmd struct {
	dbFlags `embed:""`
}

func (c *migrateCmd) Run(ctx context.Context) error {
	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.NewService().Up(ctx, db); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

type listCmd struct{}

func (c *listCmd) Run() error {
	files, err := migrations.NewService().List()
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Printf("%s  %s\n", f.Checksum[:12], f.Name)
	}
	return nil
}

var cli struct {
	Wait       waitCmd    `cmd:"" help:"Block until Postgres accepts connections."`
	Migrate    migrateCmd `cmd:"" help:"Apply pending schema migrations."`
	Migrations listCmd    `cmd:"" help:"List embedded migrations with checksums."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name("habitsctl"),
		kong.Description("Operational tasks for the habits API."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err := kctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
