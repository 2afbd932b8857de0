package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
	"github.com/YuminosukeSato/termdeposit/stats"
	"github.com/YuminosukeSato/termdeposit/visualize"
)

func exploreCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "explore",
		Short: "Summaries, chi-squared tests and plots of the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.loadFrame(cmd.Context())
			if err != nil {
				return err
			}
			return a.explore(cmd.OutOrStdout(), f)
		},
	}
	bindPlots(a, c)
	return c
}

// bindPlots adds --plots; the flag overrides output.plots when given.
func bindPlots(a *app, c *cobra.Command) {
	c.Flags().Bool("plots", true, "write PNG charts to the output directory")
	prev := c.PreRunE
	c.PreRunE = func(cmd *cobra.Command, args []string) error {
		if fl := cmd.Flags().Lookup("plots"); fl.Changed {
			a.cfg.Set("output.plots", fl.Value.String() == "true")
		}
		if prev != nil {
			return prev(cmd, args)
		}
		return nil
	}
}

func (a *app) explore(w io.Writer, f *dataset.Frame) error {
	label := dataset.LabelColumn
	labels := dataset.NewLabelEncoder()
	y, err := f.Categorical(label)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "rows: %d  columns: %d  positive rate: %.4f\n", f.Len(), len(f.Columns()), labels.PositiveRate(y))

	summaries, err := stats.DescribeFrame(f)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{s.Column, strconv.Itoa(s.Count),
			f4(s.Mean), f4(s.Std), f4(s.Min), f4(s.Q1), f4(s.Median), f4(s.Q3), f4(s.Max)})
	}
	fmt.Fprint(w, render("numeric columns",
		[]string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}, rows))

	chi, err := stats.ChiSquaredAll(f, label)
	if err != nil {
		return err
	}
	rows = rows[:0]
	for _, r := range chi {
		rows = append(rows, []string{r.Column, f4(r.Statistic), strconv.Itoa(r.DF), fmt.Sprintf("%.3g", r.PValue)})
		a.logger.Debug("chi-squared", log.ColumnKey, r.Column, log.PValueKey, r.PValue)
	}
	fmt.Fprint(w, render("chi-squared vs "+label, []string{"column", "statistic", "df", "p-value"}, rows))

	corr, err := stats.Correlations(f, label, labels)
	if err != nil {
		return err
	}
	rows = rows[:0]
	for _, c := range corr {
		rows = append(rows, []string{c.Column, f4(c.R)})
	}
	fmt.Fprint(w, render("point-biserial r vs "+label, []string{"column", "r"}, rows))

	if !a.cfg.Plots() {
		return nil
	}
	return a.explorePlots(f, labels.Positive)
}

func (a *app) explorePlots(f *dataset.Frame, positive string) error {
	dir, err := a.outputPath("plots")
	if err != nil {
		return err
	}
	if err := mkdir(dir); err != nil {
		return err
	}
	for _, name := range f.Columns() {
		if name == dataset.LabelColumn {
			continue
		}
		kind, _ := f.Kind(name)
		path := filepath.Join(dir, name+".png")
		switch kind {
		case dataset.Numeric:
			v, _ := f.Numeric(name)
			err = visualize.Histogram(v, name, path)
		default:
			var freqs []stats.LevelFrequency
			freqs, err = stats.Frequencies(f, name, dataset.LabelColumn, positive)
			if err == nil {
				err = visualize.LevelBarChart(freqs, name+": positive rate by level", path)
			}
		}
		if err != nil {
			return err
		}
	}
	a.logger.Info("exploration plots written", log.PathKey, dir)
	return nil
}
