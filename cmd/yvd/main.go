package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"yieldvault/config"
	"yieldvault/core/events"
	"yieldvault/core/state"
	"yieldvault/core/types"
	"yieldvault/crypto"
	"yieldvault/gateway"
	"yieldvault/native/session"
	"yieldvault/native/vault"
	"yieldvault/native/vault/adapters"
	"yieldvault/observability/logging"
	"yieldvault/storage"
)

const envName = "YV_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envName))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	var logger *slog.Logger
	if strings.TrimSpace(cfg.LogFile) != "" {
		logger = logging.SetupFile(cfg.ServiceName, env, cfg.LogFile)
	} else {
		logger = logging.Setup(cfg.ServiceName, env)
	}

	owner, ok, err := cfg.Owner()
	if err != nil {
		logger.Error("Failed to decode owner address", slog.Any("error", err))
		os.Exit(1)
	}
	if !ok {
		logger.Error("OwnerAddress must be configured; generate one with a wallet and set it in the config file")
		os.Exit(1)
	}

	dbPath := filepath.Join(cfg.DataDir, "vault")
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		panic(fmt.Sprintf("Failed to prepare data directory: %v", err))
	}
	db, err := storage.NewLevelDB(dbPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	emitter := &logEmitter{logger: logger}

	engine := vault.NewEngine(owner, moduleAddress(cfg.VaultID), cfg.VaultID, cfg.VaultName, cfg.Asset)
	engine.SetState(manager)
	engine.SetEmitter(emitter)
	engine.SetThresholds(cfg.Thresholds())

	// Standalone deployments run against in-process sources; live market
	// clients slot into the same three positions.
	if err := engine.SetAdapter(owner, 0, adapters.NewCompound("compound-main", adapters.NewMemoryMarket())); err != nil {
		panic(fmt.Sprintf("Failed to bind source 0: %v", err))
	}
	if err := engine.SetAdapter(owner, 1, adapters.NewAave("aave-main", adapters.NewMemoryPool())); err != nil {
		panic(fmt.Sprintf("Failed to bind source 1: %v", err))
	}
	if err := engine.SetAdapter(owner, 2, adapters.NewKinked("kinked-main", adapters.NewMemoryKinkedPool(), adapters.DefaultRateModel)); err != nil {
		panic(fmt.Sprintf("Failed to bind source 2: %v", err))
	}

	registry := session.NewRegistry(owner)
	registry.SetState(manager)
	registry.SetEmitter(emitter)
	registry.SetDefaults(cfg.SessionWindowSeconds, cfg.SessionTxBudget)

	srv := gateway.New(gateway.Config{
		Engine:   engine,
		Registry: registry,
		Owner:    owner,
		Target:   moduleAddress(cfg.VaultID),
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Vault gateway listening",
			slog.String("address", cfg.ListenAddress),
			slog.String("vault", cfg.VaultID),
			slog.String("asset", cfg.Asset))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("Gateway terminated", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.Any("error", err))
		}
	}
}

// moduleAddress derives the deterministic custody address the vault engine
// holds idle funds under.
func moduleAddress(vaultID string) crypto.Address {
	hash := ethcrypto.Keccak256([]byte("yieldvault/module/" + vaultID))
	return crypto.MustNewAddress(crypto.VaultPrefix, hash[12:])
}

// logEmitter forwards core events into the structured log.
type logEmitter struct {
	logger *slog.Logger
}

func (l *logEmitter) Emit(event events.Event) {
	if l == nil || l.logger == nil || event == nil {
		return
	}
	attrs := []any{slog.String("event", event.EventType())}
	if carrier, ok := event.(interface{ Event() *types.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for k, v := range payload.Attributes {
				attrs = append(attrs, slog.String(k, v))
			}
		}
	}
	l.logger.Info("event", attrs...)
}
