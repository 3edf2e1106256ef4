package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/award"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/cache"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/scheduler"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/setting"
	settingrepo "github.com/ovaphlow/pitchfork/service-award-go/internal/setting/repo"
	"github.com/ovaphlow/pitchfork/service-award-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-award-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-award-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-award-go")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// row store
	var (
		adapter      store.Adapter
		settingStore setting.Store
		sqlxDB       *sqlx.DB
	)
	cfg := database.ConfigFromEnv()
	if cfg.Driver == database.DriverMemory {
		sugar.Warn("DATABASE_DRIVER=memory: state is lost on exit")
		adapter = store.NewMemory()
	} else {
		sqlxDB, err = database.Open(cfg)
		if err != nil {
			sugar.Fatalf("db connect: %v", err)
		}
		defer sqlxDB.Close()

		sqlStore := store.NewSQL(sqlxDB)
		if err := sqlStore.EnsureSchema(ctx); err != nil {
			sugar.Fatalf("ensure schema: %v", err)
		}
		settings := settingrepo.NewRepo(sqlxDB)
		if err := settings.EnsureTable(ctx); err != nil {
			sugar.Fatalf("ensure settings table: %v", err)
		}
		adapter = sqlStore
		settingStore = settings
	}
	adapter = store.NewLimited(adapter, store.LimitConfigFromEnv())

	// parameters
	params, err := setting.Load(os.Getenv("AWARD_CONFIG_PATH"))
	if err != nil {
		sugar.Fatalf("load award config: %v", err)
	}
	cost, _ := strconv.Atoi(os.Getenv("AWARD_BCRYPT_COST"))
	settingSvc, err := setting.NewService(params, settingStore, cost, sugar)
	if err != nil {
		sugar.Fatalf("init settings: %v", err)
	}
	if err := settingSvc.Restore(ctx); err != nil {
		sugar.Fatalf("restore settings: %v", err)
	}
	if settingSvc.DefaultSecret() {
		sugar.Warnw("override secret is the built-in default", "set", "AWARD_SECRET")
	}

	// engine
	c := cache.New(adapter, cache.ConfigFromEnv(),
		cache.WithLogger(sugar),
		cache.WithStartingBalance(func() float64 { return settingSvc.Current().StartingBalance }),
	)
	awardSvc := award.NewService(c, settingSvc, nil, sugar)

	sched := scheduler.NewScheduler(ctx, awardSvc, sugar)
	if err := sched.RegisterAll(scheduler.RolloverCronFromEnv()); err != nil {
		sugar.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// mount http server
	handler := router.RegisterRoutes(sugar,
		award.NewHandler(awardSvc, sugar),
		setting.NewHandler(settingSvc, sugar),
	)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	if sqlxDB != nil {
		if err := sqlxDB.PingContext(doneCtx); err != nil {
			sugar.Warnf("db ping on shutdown failed: %v", err)
		}
	}

	sugar.Info("goodbye")
}
