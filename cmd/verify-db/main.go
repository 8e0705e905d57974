// verify-db reports whether the configured database has the current schema.
// It exits non-zero when migrations are pending or tables are missing.
//
// Usage: go run ./cmd/verify-db
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"varehus/internal/config"
	"varehus/internal/db"

	"github.com/fatih/color"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		color.Red("[CONFIG] %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		color.Red("[CONNECT] %v", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("[CONNECT] %s ok\n", cfg.Database.Driver)

	status, err := db.CheckSchema(ctx, cfg.Database, conn)
	if err != nil {
		color.Red("[SCHEMA] %v", err)
		os.Exit(1)
	}

	fmt.Printf("[SCHEMA] version %d of %d", status.Version, status.Latest)
	if status.Dirty {
		fmt.Print(" (dirty)")
	}
	fmt.Println()
	for _, table := range status.MissingTables {
		color.Yellow("[SCHEMA] missing table %s", table)
	}

	if !status.UpToDate() {
		color.Red("[FAIL] run `varehus migrate` to bring the schema up to date")
		os.Exit(1)
	}
	color.Green("[DONE] schema is current")
}
