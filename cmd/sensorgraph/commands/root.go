package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/YanFialkovitz/app-dados-sensores/internal/config"
	"github.com/YanFialkovitz/app-dados-sensores/internal/logging"
)

const appName = "sensorgraph"

// Version is "dev" unless set with -ldflags "-X .../commands.Version=...".
var Version = "dev"

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Line chart of sensor temperature readings",
	Long: `sensorgraph fetches temperature readings from a sensor endpoint and
draws them as a line chart, served as a web screen or rendered to a file.

It also ships the sensor endpoint itself (sensor-api), backed by SQLite and
fed over HTTP or MQTT.

Configuration is read from the environment (APP_ENV, LOG_LEVEL,
SENSOR_ENDPOINT, HTTP_ADDR, ...).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromEnv()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger = logging.New(cfg, Version, appName)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		if logger != nil {
			logger.Info("shutting down")
		}
		return 0
	}
	if logger != nil {
		logger.Error("run failed", "error", err)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	return 1
}
