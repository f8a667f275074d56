package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/punchamoorthee/hederaops/internal/auth"
	"github.com/punchamoorthee/hederaops/internal/config"
	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/logger"
	"github.com/punchamoorthee/hederaops/internal/store"
)

var (
	configFile    string
	adminUsername string
	adminPassword string
	adminEmail    string
	tokenTTL      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "hederaops-seeder",
	Short: "Create the schema and register the operator as the admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Env)
		if err != nil {
			return err
		}
		defer log.Sync()
		return seed(cmd.Context(), cfg, log)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&adminUsername, "username", "operator", "username of the admin account")
	rootCmd.Flags().StringVar(&adminPassword, "password", "", "password of the admin account (required)")
	rootCmd.Flags().StringVar(&adminEmail, "email", "", "email of the admin account")
	rootCmd.Flags().DurationVar(&tokenTTL, "token-ttl", 0, "print an admin bearer token valid for this long")
	rootCmd.MarkFlagRequired("password")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	pool, err := store.Open(ctx, cfg.DBSource)
	if err != nil {
		return err
	}
	defer pool.Close()

	s := store.New(pool)
	log.Info("ensuring schema")
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	hash, err := auth.NewBcryptHasher().Hash(adminPassword)
	if err != nil {
		return err
	}

	operator := &domain.Account{
		ID:           cfg.Hedera.OperatorID,
		Username:     adminUsername,
		Email:        adminEmail,
		PasswordHash: hash,
	}
	switch err := s.CreateAccount(ctx, operator); {
	case errors.Is(err, domain.ErrConflict):
		log.Info("operator account already present, skipping", zap.String("account_id", operator.ID))
	case err != nil:
		return err
	default:
		log.Info("operator account seeded", zap.String("account_id", operator.ID), zap.String("username", operator.Username))
	}

	if tokenTTL > 0 {
		token, err := auth.NewVerifier(cfg.JWT.Secret).Sign(domain.Caller{
			ID:       operator.ID,
			Username: adminUsername,
			Roles:    []string{domain.RoleAdmin},
		}, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
	}
	return nil
}
