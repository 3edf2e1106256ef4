package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	settingrepo "github.com/ovaphlow/pitchfork/service-award-go/internal/setting/repo"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-award-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-award-go/pkg/utilities"
)

// Provisions the accounts, pool, ledger and settings tables and exits.
// The API server lives in cmd/api.
func main() {
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()

	cfg := database.ConfigFromEnv()
	if cfg.Driver == database.DriverMemory {
		sugar.Info("memory driver has no schema; nothing to do")
		return
	}
	db, err := database.Open(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := store.NewSQL(db).EnsureSchema(ctx); err != nil {
		sugar.Fatalf("ensure schema: %v", err)
	}
	if err := settingrepo.NewRepo(db).EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure settings table: %v", err)
	}
	sugar.Infow("schema ready", "driver", cfg.Driver)
}
