package commands

import (
	"github.com/spf13/cobra"

	"github.com/YanFialkovitz/app-dados-sensores/internal/app"
)

func init() {
	rootCmd.AddCommand(sensorAPICmd)
}

var sensorAPICmd = &cobra.Command{
	Use:   "sensor-api",
	Short: "Serve the /dados-sensores endpoint",
	Long: `Serves GET and POST /dados-sensores on SENSOR_API_ADDR, storing readings
in SQLite. When MQTT_BROKER is set, telemetry published on MQTT_TOPIC is
stored as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("starting", "command", "sensor-api", "version", Version)
		return app.RunSensorAPI(cmd.Context(), cfg, logger)
	},
}
