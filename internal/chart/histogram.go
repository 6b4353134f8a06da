// Package chart renders dashboard histograms to images.
package chart

import (
	"errors"
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"penguinboard/pkg/domain"
)

// ErrEmptyHistogram is returned when there is nothing to draw.
var ErrEmptyHistogram = errors.New("chart: histogram has no bins")

// Options sizes the rendered image.
type Options struct {
	Width  int
	Height int
	Title  string
}

// DefaultOptions matches the dashboard card.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 480, Title: "Plotly Histogram - Bill length and depth"}
}

var speciesColors = map[domain.Species]drawing.Color{
	domain.SpeciesAdelie:    drawing.ColorFromHex("636EFA"),
	domain.SpeciesGentoo:    drawing.ColorFromHex("EF553B"),
	domain.SpeciesChinstrap: drawing.ColorFromHex("00CC96"),
}

func colorFor(sp domain.Species) drawing.Color {
	if c, ok := speciesColors[sp]; ok {
		return c
	}
	return drawing.ColorFromHex("AB63FA")
}

// RenderPNG draws the histogram as stacked step outlines, one per species.
func RenderPNG(w io.Writer, h domain.Histogram, opts Options) error {
	if h.Empty() || len(h.Species) == 0 {
		return ErrEmptyHistogram
	}
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Title == "" {
		opts.Title = def.Title
	}

	stacked, maxY := stackSeries(h)
	// Topmost layer first so each lower fill paints over the one above it.
	series := make([]gochart.Series, 0, len(stacked))
	for i := len(stacked) - 1; i >= 0; i-- {
		series = append(series, stacked[i])
	}
	if maxY <= 0 {
		maxY = 1
	}

	first, last := h.Bins[0], h.Bins[len(h.Bins)-1]
	ch := gochart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  h.XField,
			Range: &gochart.ContinuousRange{Min: first.Start, Max: last.End},
		},
		YAxis: gochart.YAxis{
			Name:  "sum of " + h.YField,
			Range: &gochart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

// stackSeries builds one step outline per species in h.Species order. Each
// outline sits on the running per-bin total of the species before it, so the
// last one traces the bin total. maxY is the tallest stack.
func stackSeries(h domain.Histogram) ([]gochart.ContinuousSeries, float64) {
	base := make([]float64, len(h.Bins))
	out := make([]gochart.ContinuousSeries, 0, len(h.Species))
	maxY := 0.0
	for _, sp := range h.Species {
		xs := make([]float64, 0, 2*len(h.Bins))
		ys := make([]float64, 0, 2*len(h.Bins))
		for i, bin := range h.Bins {
			base[i] += bin.Totals[sp]
			maxY = max(maxY, base[i])
			xs = append(xs, bin.Start, bin.End)
			ys = append(ys, base[i], base[i])
		}
		col := colorFor(sp)
		out = append(out, gochart.ContinuousSeries{
			Name:    string(sp),
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				FillColor:   col.WithAlpha(200),
			},
		})
	}
	return out, maxY
}
