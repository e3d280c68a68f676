package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"

	"medeasy/pharmacy/internal/alerts"
	"medeasy/pharmacy/internal/api"
	"medeasy/pharmacy/internal/auth"
	"medeasy/pharmacy/internal/config"
	"medeasy/pharmacy/internal/database"
	"medeasy/pharmacy/internal/inventory"
	applog "medeasy/pharmacy/internal/logging"
	"medeasy/pharmacy/internal/migrations"
	"medeasy/pharmacy/internal/reports"
	"medeasy/pharmacy/internal/sales"
	"medeasy/pharmacy/internal/seed"
	"medeasy/pharmacy/internal/store"
)

var log = logging.MustGetLogger("main")

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := applog.Init(cfg.LogLevel); err != nil {
		log.Fatalf("logging: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	ctx := context.Background()
	st := store.New(db)
	ledger := inventory.NewLedger(st, cfg.StockUpdateRetries)
	gate := auth.NewGate(st, cfg.Secret, auth.WithTokenTTL(cfg.TokenTTL))
	settings := alerts.Settings{
		LowStockThreshold: cfg.LowStockThreshold,
		ExpiryWindowDays:  cfg.ExpiryWindowDays,
		Location:          cfg.Location,
	}

	if cfg.SeedUsers {
		if _, err := seed.Users(ctx, st, gate); err != nil {
			log.Fatalf("seed users: %v", err)
		}
	}
	if cfg.SeedCatalog != "" {
		if _, err := seed.LoadMedicines(ctx, ledger, cfg.SeedCatalog); err != nil {
			log.Errorf("seed catalog: %v", err)
		}
	}

	handler := api.New(api.Services{
		Ledger:  ledger,
		Sales:   sales.NewProcessor(st, ledger),
		Alerts:  alerts.NewEngine(ledger, settings),
		Reports: reports.NewAggregator(st, cfg.Location, reports.WithAlertSettings(settings)),
		Gate:    gate,
	}, api.WithCORSOrigins(cfg.CORSOrigins), api.WithLocation(cfg.Location))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("pharmacy server starting on :%s", cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
