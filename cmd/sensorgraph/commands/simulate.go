package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/YanFialkovitz/app-dados-sensores/internal/app"
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().String("station", "sim-01", "Station id to publish as")
	simulateCmd.Flags().Int("count", 0, "Number of readings, 0 publishes until interrupted")
	simulateCmd.Flags().Duration("interval", 2*time.Second, "Delay between readings")
	simulateCmd.Flags().Float64("start", 22.0, "Initial temperature in °C")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish simulated temperature telemetry over MQTT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		station, _ := flags.GetString("station")
		count, _ := flags.GetInt("count")
		interval, _ := flags.GetDuration("interval")
		start, _ := flags.GetFloat64("start")

		return app.Simulate(cmd.Context(), cfg, app.SimulateOptions{
			StationID: station,
			Count:     count,
			Interval:  interval,
			Start:     start,
		}, logger)
	},
}
