package main

import (
	"fmt"
	"os"

	"github.com/assetshare/backend/internal/config"
	"github.com/assetshare/backend/internal/database"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "assetshare",
	Short: "AssetShare API server",
	Long: `AssetShare stores uploaded assets, shares them between users by
sharing code and gates large uploads behind a mock payment.

Commands:
  assetshare serve     Run the HTTP API (default)
  assetshare migrate   Create or update database tables
  assetshare sweep     Remove stored files no asset refers to`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", os.Getenv("ASSETSHARE_CONFIG"), "Path to a YAML config file (env vars override it)")
}

func main() {
	logger.Init()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	return cfg, nil
}

// openDatabase connects and brings the schema up to date.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return db, nil
}
