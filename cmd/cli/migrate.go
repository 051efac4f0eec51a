package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vutto/pricing-service/config"
	"github.com/vutto/pricing-service/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  `Create the catalog, cluster, config and price request tables if they do not exist.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	if err := database.Connect(ctx, database.PoolConfig{
		URL:      dbURL,
		MaxConns: 2,
		MinConns: 1,
	}); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx, database.Pool()); err != nil {
		return err
	}
	logger.Info().Msg("Schema applied")
	return nil
}
