package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/termdeposit/benchmark"
	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
	"github.com/YuminosukeSato/termdeposit/visualize"
)

// evalFlags are the evaluate options shared with run.
type evalFlags struct {
	models []string
	metric string
}

func (e *evalFlags) register(c *cobra.Command) {
	c.Flags().StringSliceVar(&e.models, "models", nil, "comma separated model ids (default: the whole zoo)")
	c.Flags().StringVar(&e.metric, "metric", benchmark.MetricAUC, "metric used to rank the models")
}

func evaluateCmd(a *app) *cobra.Command {
	var ef evalFlags
	c := &cobra.Command{
		Use:   "evaluate",
		Short: "Partition the data, fit the classifier zoo and compare validation metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			zoo, err := a.zoo(ef)
			if err != nil {
				return err
			}
			f, err := a.loadFrame(cmd.Context())
			if err != nil {
				return err
			}
			_, err = a.evaluate(cmd.Context(), cmd.OutOrStdout(), f, zoo, ef.metric)
			return err
		},
	}
	ef.register(c)
	bindPlots(a, c)
	return c
}

// zoo resolves --models (or models.only) and checks --metric before any
// data is loaded.
func (a *app) zoo(ef evalFlags) ([]benchmark.Spec, error) {
	if err := benchmark.CheckMetric(ef.metric); err != nil {
		return nil, err
	}
	names := ef.models
	if len(names) == 0 {
		names = a.cfg.OnlyModels()
	}
	return benchmark.Select(benchmark.DefaultZoo(a.cfg), names)
}

func (a *app) evaluate(ctx context.Context, w io.Writer, f *dataset.Frame, zoo []benchmark.Spec, metric string) (*benchmark.Results, error) {
	train, valid, err := a.partition(f)
	if err != nil {
		return nil, err
	}

	results, err := benchmark.NewRunner(train, valid, dataset.LabelColumn).Run(ctx, zoo)
	if err != nil {
		return results, err
	}
	if err := results.Sort(metric); err != nil {
		return results, err
	}
	fmt.Fprintln(w, results.Table())
	best, _ := results.Best(metric)
	fmt.Fprintf(w, "best by %s: %s\n", metric, best.Name)

	path, err := a.outputPath("results.json")
	if err != nil {
		return results, err
	}
	if err := writeReport(path, results); err != nil {
		return results, err
	}
	a.logger.Info("report written", log.PathKey, path, log.RunIDKey, results.RunID)

	if a.cfg.Plots() {
		if err := a.evaluationPlots(results, metric); err != nil {
			return results, err
		}
	}
	return results, nil
}

func writeReport(path string, results *benchmark.Results) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := fh.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	return results.WriteJSON(fh)
}

func (a *app) evaluationPlots(results *benchmark.Results, metric string) error {
	roc, err := a.outputPath("roc.png")
	if err != nil {
		return err
	}
	if err := visualize.ROCCurves(results.ROCCurves(), roc); err != nil {
		return err
	}
	bars, err := results.Bars(metric)
	if err != nil {
		return err
	}
	cmp, err := a.outputPath("comparison_" + metric + ".png")
	if err != nil {
		return err
	}
	return visualize.ModelComparison(bars, metric, cmp)
}
