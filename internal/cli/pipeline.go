package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

// loadFrame reads the dataset from --data, or downloads it. Without a
// cache directory the download lives in a temporary directory that is
// removed once the CSV is parsed.
func (a *app) loadFrame(ctx context.Context) (*dataset.Frame, error) {
	schema := dataset.BankAdditional()
	path := a.cfg.DataPath()
	if path == "" {
		dir := a.cfg.CacheDir()
		if dir == "" {
			tmp, err := os.MkdirTemp("", "termdeposit-*")
			if err != nil {
				return nil, errors.Wrap(err, "create download directory")
			}
			defer os.RemoveAll(tmp)
			dir = tmp
		}
		var err error
		path, err = dataset.Fetch(ctx, a.cfg.DatasetURL(), a.cfg.DatasetMember(), dir)
		if err != nil {
			return nil, err
		}
	}
	f, err := dataset.ReadFile(path, schema)
	if err != nil {
		return nil, err
	}
	if drop := a.cfg.DropColumns(); len(drop) > 0 {
		f = f.Drop(drop...)
		a.logger.Debug("dropped columns", "columns", drop)
	}
	return f, nil
}

// partition splits f, repairs the join column and checks the result covers
// every row exactly once.
func (a *app) partition(f *dataset.Frame) (train, valid *dataset.Frame, err error) {
	split, err := dataset.Partition(f, dataset.LabelColumn, a.cfg.ValidationFraction(), a.cfg.Seed())
	if err != nil {
		return nil, nil, err
	}
	if col := a.cfg.JoinColumn(); col != "" {
		if split, _, err = split.RepairJoin(f, col); err != nil {
			return nil, nil, err
		}
	}
	if err := split.Check(f.Len()); err != nil {
		return nil, nil, err
	}

	labels := dataset.NewLabelEncoder()
	train, valid = f.Subset(split.Train), f.Subset(split.Validation)
	for name, part := range map[string]*dataset.Frame{"train": train, "validation": valid} {
		y, _ := part.Categorical(dataset.LabelColumn)
		a.logger.Info("partition",
			"partition", name,
			log.SamplesKey, part.Len(),
			log.PositiveRateKey, labels.PositiveRate(y),
		)
	}
	return train, valid, nil
}

// outputPath creates the output directory on first use and joins name onto it.
func (a *app) outputPath(name string) (string, error) {
	dir := a.cfg.OutputDir()
	if err := mkdir(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	return nil
}
