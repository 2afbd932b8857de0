// Package visualize renders exploration and benchmark charts to image files
// with gonum/plot. The output format follows the file extension (png, svg, pdf).
package visualize

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
	"github.com/YuminosukeSato/termdeposit/stats"
)

const (
	defaultWidth  = 6 * vg.Inch
	defaultHeight = 4 * vg.Inch
	histogramBins = 30
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// Curve is a named ROC curve.
type Curve struct {
	Name string
	FPR  []float64
	TPR  []float64
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(defaultWidth, defaultHeight, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	log.GetLoggerWithName("visualize").Debug("plot written", log.PathKey, path)
	return nil
}

// Histogram draws the distribution of values.
func Histogram(values []float64, title, path string) error {
	if len(values) == 0 {
		return errors.ErrEmptyData
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(values), histogramBins)
	if err != nil {
		return errors.Wrap(err, "histogram")
	}
	p.Add(h)
	return save(p, path)
}

// Bars draws a labelled bar chart.
func Bars(bars []Bar, title, yLabel, path string) error {
	if len(bars) == 0 {
		return errors.ErrEmptyData
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	values := make(plotter.Values, len(bars))
	names := make([]string, len(bars))
	for i, b := range bars {
		values[i] = b.Value
		names[i] = b.Label
	}
	chart, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "bar chart")
	}
	chart.Color = plotutil.Color(0)
	p.Add(chart)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = -0.8
	return save(p, path)
}

// LevelBarChart plots the positive rate of every level of a categorical column.
func LevelBarChart(freqs []stats.LevelFrequency, title, path string) error {
	bars := make([]Bar, len(freqs))
	for i, f := range freqs {
		bars[i] = Bar{Label: f.Level, Value: f.PositiveRate}
	}
	return Bars(bars, title, "positive rate", path)
}

// ROCCurves overlays ROC curves with the chance diagonal.
func ROCCurves(curves []Curve, path string) error {
	if len(curves) == 0 {
		return errors.ErrEmptyData
	}
	p := plot.New()
	p.Title.Text = "ROC"
	p.X.Label.Text = "false positive rate"
	p.Y.Label.Text = "true positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	diagonal := plotter.NewFunction(func(x float64) float64 { return x })
	diagonal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diagonal)

	var args []interface{}
	for _, c := range curves {
		if len(c.FPR) != len(c.TPR) {
			return errors.NewDimensionError("ROCCurves", len(c.FPR), len(c.TPR), 0)
		}
		pts := make(plotter.XYs, len(c.FPR))
		for i := range c.FPR {
			pts[i].X = c.FPR[i]
			pts[i].Y = c.TPR[i]
		}
		args = append(args, c.Name, pts)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return errors.Wrap(err, "roc lines")
	}
	p.Legend.Top = false
	p.Legend.Left = false
	return save(p, path)
}

// ModelComparison draws one bar per model for the given metric.
func ModelComparison(bars []Bar, metric, path string) error {
	return Bars(bars, "model comparison", metric, path)
}
