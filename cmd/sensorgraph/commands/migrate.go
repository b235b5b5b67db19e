package commands

import (
	"github.com/spf13/cobra"

	"github.com/YanFialkovitz/app-dados-sensores/internal/app"
)

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("status", false, "Only list migrations and whether they are applied")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQLite schema migrations",
	Long: `Applies pending schema migrations to the sensor store configured by
SQLITE_PATH or DB_DSN. sensor-api also runs them when it boots.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		statusOnly, _ := cmd.Flags().GetBool("status")
		return app.MigrateDB(cmd.Context(), cfg, statusOnly, cmd.OutOrStdout(), logger)
	},
}
