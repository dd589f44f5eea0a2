package main

import (
	"fmt"
	"time"

	"github.com/assetshare/backend/internal/services"
	"github.com/assetshare/backend/internal/storage"
	"github.com/spf13/cobra"
)

var flagMinAge time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stored files that no asset refers to",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("min-age") {
			cfg.Sweep.MinAge = flagMinAge
		}

		ctx := cmd.Context()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		store, err := storage.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("storage initialization failed: %w", err)
		}

		result, err := services.NewSweeper(db, store, cfg.Sweep.MinAge).Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, removed %d, failed %d\n", result.Scanned, result.Removed, result.Failed)
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&flagMinAge, "min-age", time.Hour, "Only remove files older than this")
	rootCmd.AddCommand(sweepCmd)
}
