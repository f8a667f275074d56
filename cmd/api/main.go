package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/api"
	"github.com/punchamoorthee/hederaops/internal/auth"
	"github.com/punchamoorthee/hederaops/internal/config"
	"github.com/punchamoorthee/hederaops/internal/ledger"
	"github.com/punchamoorthee/hederaops/internal/logger"
	"github.com/punchamoorthee/hederaops/internal/retry"
	"github.com/punchamoorthee/hederaops/internal/service"
	"github.com/punchamoorthee/hederaops/internal/status"
	"github.com/punchamoorthee/hederaops/internal/store"
	"github.com/punchamoorthee/hederaops/internal/txlog"
)

const shutdownTimeout = 15 * time.Second

var configFile string

var rootCmd = &cobra.Command{
	Use:   "hederaops-api",
	Short: "HTTP API for ledger accounts, transfers, tokens and topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Env)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, log)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	dbPool, err := store.Open(ctx, cfg.DBSource)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	localStore := store.New(dbPool)
	if err := localStore.EnsureSchema(ctx); err != nil {
		return err
	}

	client, err := ledger.NewHederaClient(ledger.HederaConfig{
		Network:     cfg.Hedera.Network,
		OperatorID:  cfg.Hedera.OperatorID,
		OperatorKey: cfg.Hedera.OperatorKey,
	}, log)
	if err != nil {
		return err
	}
	defer client.Close()

	audit := txlog.NewWriter(localStore, log, cfg.TxLogWriteTimeout)
	defer audit.Wait()

	retrier := retry.New(retry.Policy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		Factor:       cfg.Retry.Factor,
	})

	orch := service.NewOrchestrator(client, localStore, retrier, audit, log)
	accounts := service.NewAccountService(client, localStore, localStore, localStore, auth.NewBcryptHasher(), audit, log, cfg.InitialBalance)

	cache := status.NewCache(orch.GetNetworkStatus, cfg.StatusRefreshInterval, log)
	if err := cache.Start(); err != nil {
		return err
	}
	defer cache.Stop()

	handler := api.NewHandler(accounts, orch, cache, log)
	router := api.NewRouter(handler, auth.NewVerifier(cfg.JWT.Secret), api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("network", cfg.Hedera.Network),
			zap.String("operator", client.OperatorID()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
