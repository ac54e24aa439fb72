package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-validator/internal/config"
	"github.com/makkenzo/apikey-validator/internal/storage/postgres"
	"github.com/makkenzo/apikey-validator/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "keyctl",
		Short:         "Manage API keys of the validation service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.cfg = cfg

			l, _, err := logger.NewZapLogger(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.logger = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file")

	root.AddCommand(
		newMigrateCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
	)
	return root
}

func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if !a.cfg.Database.Configured() {
		return nil, errors.New("DATABASE_URL and DATABASE_PASSWORD must be set")
	}
	return postgres.NewPgxPool(ctx, &a.cfg.Database, a.logger)
}
