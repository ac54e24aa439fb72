package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
	"github.com/makkenzo/apikey-validator/internal/handler/dto"
	"github.com/makkenzo/apikey-validator/internal/service"
	"github.com/makkenzo/apikey-validator/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := postgres.ApplyMigrations(cmd.Context(), pool, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var req dto.CreateAPIKeyRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print its secret once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := service.NewAPIKeyService(postgres.NewAPIKeyRepository(pool, a.logger), a.logger)
			resp, err := svc.CreateAPIKey(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Human-readable key name")
	cmd.Flags().StringVar(&req.Type, "type", "dev", "Key type (dev, prod, test)")
	cmd.Flags().Int64Var(&req.UsageLimit, "limit", apikey.DefaultUsageLimit, "Maximum number of successful validations")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		name     string
		keyType  string
		limit    int64
		isActive bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update attributes of an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid key id %q: %w", args[0], err)
			}

			req := updateRequestFromFlags(cmd, name, keyType, limit, isActive)

			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := service.NewAPIKeyService(postgres.NewAPIKeyRepository(pool, a.logger), a.logger)
			resp, err := svc.UpdateAPIKey(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New key name")
	cmd.Flags().StringVar(&keyType, "type", "", "New key type (dev, prod, test)")
	cmd.Flags().Int64Var(&limit, "limit", 0, "New usage limit")
	cmd.Flags().BoolVar(&isActive, "active", true, "Whether the key can be used")
	return cmd
}

// updateRequestFromFlags keeps only the flags the operator actually passed.
func updateRequestFromFlags(cmd *cobra.Command, name, keyType string, limit int64, isActive bool) dto.UpdateAPIKeyRequest {
	var req dto.UpdateAPIKeyRequest
	flags := cmd.Flags()
	if flags.Changed("name") {
		req.Name = &name
	}
	if flags.Changed("type") {
		req.Type = &keyType
	}
	if flags.Changed("limit") {
		req.UsageLimit = &limit
	}
	if flags.Changed("active") {
		req.IsActive = &isActive
	}
	return req
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
