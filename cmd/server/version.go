package main

import (
	"fmt"

	"github.com/assetshare/backend/internal/handlers"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the server version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), handlers.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
