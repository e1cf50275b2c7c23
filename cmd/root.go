// Package cmd holds the friendsd command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"friendsd/config"
	"friendsd/database"
	"friendsd/logger"
)

var rootCmd = &cobra.Command{
	Use:           "friendsd",
	Short:         "Friendship graph service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		logger.InitLogger(config.Cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(provisionCmd)

	provisionCmd.Flags().StringVar(&usersTable, "users-table", "users", "Table holding existing user accounts")
	provisionCmd.Flags().StringVar(&idColumn, "id-column", "id", "Column holding the user ID")
}

// Execute runs the command selected on the command line.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// openDB connects with the loaded configuration and applies pending migrations.
func openDB(cmd *cobra.Command) (*database.DB, error) {
	cfg := config.Cfg
	db, err := database.Open(cmd.Context(), cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
