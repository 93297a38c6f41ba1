// Package cli implements keepsakectl, the operator command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keepsake/internal/config"
	"keepsake/internal/database"
	"keepsake/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "keepsakectl",
	Short: "Operate a Keepsake deployment",
	Long:  "keepsakectl runs schema migrations and manages depreciation rules against the configured database.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(os.Getenv("ENV"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rulesCmd)
}

// openDatabase connects with the environment's configuration.
func openDatabase() (*database.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	mgr, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, err
	}
	return mgr, nil
}
