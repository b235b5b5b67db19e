package commands

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YanFialkovitz/app-dados-sensores/internal/app"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/chart"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/loader"
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("token", "", "Bearer token sent to the sensor endpoint (default $SENSOR_TOKEN)")
	renderCmd.Flags().StringP("out", "o", "-", "Output file, - for stdout")
	renderCmd.Flags().String("format", "svg", "Image format: svg or png")
	renderCmd.Flags().Int("width", 0, "Image width in pixels (default $CHART_WIDTH)")
	renderCmd.Flags().Int("height", 0, "Image height in pixels (default $CHART_HEIGHT)")
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fetch readings once and write the chart image",
	Long: `Fetches the readings from SENSOR_ENDPOINT once and writes the temperature
chart as SVG or PNG.

For example:

		$ sensorgraph render --token abc --format png -o chart.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		token, _ := flags.GetString("token")
		if !flags.Changed("token") {
			token = os.Getenv("SENSOR_TOKEN")
		}
		out, _ := flags.GetString("out")
		formatStr, _ := flags.GetString("format")
		width, _ := flags.GetInt("width")
		height, _ := flags.GetInt("height")

		format, err := chart.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		if width == 0 {
			width = cfg.ChartWidth
		}
		if height == 0 {
			height = cfg.ChartHeight
		}

		var w io.Writer = cmd.OutOrStdout()
		var f *os.File
		if out != "-" {
			f, err = os.Create(out)
			if err != nil {
				return err
			}
			w = f
		}
		bw := bufio.NewWriter(w)

		n, err := app.RenderChart(cmd.Context(), cfg, Version, token, bw, chart.Options{
			Width:  width,
			Height: height,
			Format: format,
		}, logger)
		if err == nil {
			err = bw.Flush()
		}
		if f != nil {
			err = errors.Join(err, f.Close())
		}
		if err != nil {
			logger.Error("render failed", "message", loader.UserMessage(err))
			return err
		}
		logger.Info("chart rendered", "points", n, "format", string(format), "out", out)
		return nil
	},
}
