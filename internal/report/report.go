// Package report renders training diagnostics.
package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/calorieburn/pkg/errors"
)

// FormatScore formats a score for titles and log lines.
func FormatScore(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// ParityPlot writes a predicted-vs-actual scatter with the identity line.
// The image format follows the file extension (png, svg, pdf, ...).
func ParityPlot(path, title string, actual, predicted []float64) error {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return errors.NewDimensionError("report.ParityPlot", len(actual), len(predicted), 0)
	}

	pts := make(plotter.XYs, len(actual))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range actual {
		pts[i].X = actual[i]
		pts[i].Y = predicted[i]
		lo = math.Min(lo, math.Min(actual[i], predicted[i]))
		hi = math.Max(hi, math.Max(actual[i], predicted[i]))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Actual calories (kcal)"
	p.Y.Label.Text = "Predicted calories (kcal)"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "build scatter")
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 160}

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "build identity line")
	}
	identity.LineStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	identity.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(scatter, identity)
	p.Legend.Add("held-out rows", scatter)
	p.Legend.Add("y = x", identity)
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
