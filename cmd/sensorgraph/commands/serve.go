package commands

import (
	"github.com/spf13/cobra"

	"github.com/YanFialkovitz/app-dados-sensores/internal/app"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sensor graph screen",
	Long: `Serves the graph screen on HTTP_ADDR. Each browser session owns a
screen that loads readings from SENSOR_ENDPOINT with the session's bearer
token and reloads whenever the token changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("starting", "command", "serve", "version", Version)
		return app.RunServe(cmd.Context(), cfg, Version, logger)
	},
}
