package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"reservenet/config"
	"reservenet/native/converter"
	"reservenet/native/router"
	"reservenet/native/tokenledger"
	"reservenet/observability/logging"
	"reservenet/observability/metrics"
	"reservenet/rpc"
	"reservenet/state"
	"reservenet/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("RESERVENET_ENV"))
	logger := logging.Setup("reservenetd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	store := converter.NewStore(state.NewKV(db))
	registry := converter.NewRegistry(store, cfg.AdminAccount)
	registry.SetOwnerMutations(cfg.OwnerMutationsEnabled)

	hub, err := router.NewHub(router.Config{
		Account: cfg.NetworkAccount,
		DB:      db,
		Ledger: func(kv converter.Storage) converter.TokenLedger {
			return tokenledger.NewLedger(kv)
		},
		MaxHops: cfg.MaxHops,
		Log:     logger,
		Metrics: metrics.Converter(),
	})
	if err != nil {
		logger.Error("Failed to wire conversion hub", slog.Any("error", err))
		os.Exit(1)
	}

	server := rpc.NewServer(registry, hub)
	logger.Info("Starting JSON-RPC server", slog.String("addr", cfg.ListenAddress))
	if err := http.ListenAndServe(cfg.ListenAddress, server.Handler()); err != nil {
		logger.Error("HTTP server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
