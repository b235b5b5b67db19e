// Package chart draws the temperature line chart for a ChartSeries.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/types"
)

const (
	Title       = "Gráfico de Dados dos Sensores"
	SeriesLabel = "Temperatura"
	XAxisTitle  = "Tempo"
	YAxisTitle  = "Temperatura (°C)"

	// Tension is the curve smoothing factor applied between points.
	Tension = 0.1

	DefaultWidth  = 800
	DefaultHeight = 400
	MinWidth      = 200
	MaxWidth      = 4000
	MinHeight     = 150
	MaxHeight     = 3000

	samplesPerSegment = 8
	// approximate pixels one X label needs before labels start to collide
	pixelsPerTick = 80
)

// LineColor is rgba(75, 192, 192, 1).
var LineColor = drawing.Color{R: 75, G: 192, B: 192, A: 255}

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSVG, "":
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q (allowed: svg, png)", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Options controls a single render. Zero sizes fall back to the defaults and
// out-of-range sizes are clamped.
type Options struct {
	Width  int
	Height int
	Format Format
	// WithTitle draws Title inside the image, for standalone output.
	WithTitle bool
}

// ClampSize applies the defaults and bounds used by Render.
func ClampSize(width, height int) (int, int) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return clamp(width, MinWidth, MaxWidth), clamp(height, MinHeight, MaxHeight)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Build assembles the go-chart definition for s without rendering it.
func Build(s types.ChartSeries, opts Options) gochart.Chart {
	width, height := ClampSize(opts.Width, opts.Height)
	n := s.Len()

	yMin, yMax := yBounds(s.Values)
	xMin, xMax := xAxisRange(n)

	var line gochart.ContinuousSeries
	if n == 0 {
		// go-chart refuses to draw without a visible series; an invisible
		// baseline keeps the axes and legend on screen.
		line = gochart.ContinuousSeries{
			Name:    SeriesLabel,
			XValues: []float64{0, 1},
			YValues: []float64{0, 0},
			Style:   gochart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
		}
	} else {
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = float64(i)
		}
		ys := append([]float64(nil), s.Values...)
		if n == 1 {
			// one point has no segment; draw it as a dot
			line = gochart.ContinuousSeries{
				Name:    SeriesLabel,
				XValues: []float64{0, 0},
				YValues: []float64{ys[0], ys[0]},
				Style: gochart.Style{
					StrokeColor: LineColor,
					StrokeWidth: 2,
					DotColor:    LineColor,
					DotWidth:    4,
				},
			}
		} else {
			yScale := float64(height) / (yMax - yMin) / (float64(width) / (xMax - xMin))
			sx, sy := smooth(xs, ys, Tension, samplesPerSegment, yScale)
			line = gochart.ContinuousSeries{
				Name:    SeriesLabel,
				XValues: sx,
				YValues: sy,
				Style: gochart.Style{
					StrokeColor: LineColor,
					StrokeWidth: 2,
				},
			}
		}
	}

	padTop := 24
	title := ""
	if opts.WithTitle {
		title = Title
		padTop = 48
	}

	c := gochart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: padTop, Left: 16, Right: 24, Bottom: 16},
		},
		XAxis: gochart.XAxis{
			Name:  XAxisTitle,
			Range: &gochart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks: categoryTicks(s.Labels, width/pixelsPerTick),
		},
		YAxis: gochart.YAxis{
			Name:           YAxisTitle,
			Range:          &gochart.ContinuousRange{Min: yMin, Max: yMax},
			ValueFormatter: celsiusFormatter,
		},
		Series: []gochart.Series{line},
	}
	c.Elements = []gochart.Renderable{gochart.Legend(&c)}
	return c
}

// Render draws s into w in the requested format.
func Render(w io.Writer, s types.ChartSeries, opts Options) error {
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("chart series mismatch: %d labels, %d values", len(s.Labels), len(s.Values))
	}
	format := opts.Format
	if format == "" {
		format = FormatSVG
	}
	provider := gochart.SVG
	if format == FormatPNG {
		provider = gochart.PNG
	}

	c := Build(s, opts)
	var buf bytes.Buffer
	if err := c.Render(provider, &buf); err != nil {
		return fmt.Errorf("render %s chart: %w", format, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func celsiusFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return fmt.Sprint(v)
}
