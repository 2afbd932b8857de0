package benchmark

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

// Runner evaluates a zoo on one train/validation partition. Models run one
// after another; the first failure stops the run.
type Runner struct {
	train, valid *dataset.Frame
	label        string
	logger       log.Logger

	// エンコーディングごとの符号化済みデータ
	prepared map[dataset.Encoding][2]Data
}

// NewRunner creates a Runner over the two partitions.
func NewRunner(train, valid *dataset.Frame, label string) *Runner {
	return &Runner{
		train:    train,
		valid:    valid,
		label:    label,
		logger:   log.GetLoggerWithName("benchmark"),
		prepared: make(map[dataset.Encoding][2]Data),
	}
}

func (r *Runner) data(enc dataset.Encoding) (Data, Data, error) {
	if d, ok := r.prepared[enc]; ok {
		return d[0], d[1], nil
	}
	train, valid, err := Prepare(r.train, r.valid, r.label, enc)
	if err != nil {
		return Data{}, Data{}, err
	}
	r.logger.Info("encoded partitions",
		log.OperationKey, log.OperationTransform,
		"encoding", enc.String(),
		log.FeaturesKey, len(train.Features),
		"train.samples", train.Y.Len(),
		"validation.samples", valid.Y.Len(),
	)
	r.prepared[enc] = [2]Data{train, valid}
	return train, valid, nil
}

// Run evaluates every spec in order. Cancelling ctx stops the run before
// the next model starts. On error the results gathered so far are returned
// together with the error.
func (r *Runner) Run(ctx context.Context, zoo []Spec) (*Results, error) {
	results := &Results{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	logger := r.logger.With(log.RunIDKey, results.RunID)

	for _, spec := range zoo {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		train, valid, err := r.data(spec.Encoding)
		if err != nil {
			return results, err
		}
		logger.Debug("evaluating", log.ModelIDKey, spec.Name, log.PhaseKey, log.PhaseValidation)

		res, err := Evaluate(ctx, spec, train, valid)
		if err != nil {
			logger.Error("model failed", err, log.ModelIDKey, spec.Name)
			return results, err
		}
		results.Rows = append(results.Rows, res)
		logger.Info("evaluated",
			log.ModelIDKey, spec.Name,
			log.AccuracyKey, res.Accuracy,
			log.F1Key, res.F1Macro,
			log.AUCKey, res.AUC,
			log.DurationMsKey, res.Duration.Milliseconds(),
		)
	}
	return results, nil
}
