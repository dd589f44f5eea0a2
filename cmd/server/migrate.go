package main

import (
	"github.com/assetshare/backend/pkg/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, err := openDatabase(cfg); err != nil {
			return err
		}
		logger.Info("database_migrated", map[string]interface{}{
			"db_driver": cfg.DB.Driver,
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
