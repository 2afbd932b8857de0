package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

// pcgStream is the fixed second word of the PCG state.
const pcgStream = 0x9e3779b97f4a7c15

// Split holds sorted row indices of the training and validation partitions.
type Split struct {
	Train      []int
	Validation []int
}

// Partition draws a stratified validation sample: within every label level
// round(fraction*size) rows go to validation. The result depends only on
// the frame contents, fraction and seed.
func Partition(f *Frame, label string, fraction float64, seed uint64) (Split, error) {
	if fraction <= 0 || fraction >= 1 {
		return Split{}, errors.NewValidationError("fraction", "must lie in (0, 1)", fraction)
	}
	keys, err := f.Keys(label)
	if err != nil {
		return Split{}, err
	}

	strata := make(map[string][]int)
	for i, k := range keys {
		strata[k] = append(strata[k], i)
	}
	levels := make([]string, 0, len(strata))
	for k := range strata {
		levels = append(levels, k)
	}
	sort.Strings(levels)

	rng := rand.New(rand.NewPCG(seed, pcgStream))
	var split Split
	for _, level := range levels {
		rows := strata[level]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		nValid := int(math.Round(fraction * float64(len(rows))))
		split.Validation = append(split.Validation, rows[:nValid]...)
		split.Train = append(split.Train, rows[nValid:]...)
	}
	sort.Ints(split.Train)
	sort.Ints(split.Validation)

	log.GetLoggerWithName("dataset").Info("partitioned dataset",
		log.OperationKey, log.OperationPartition,
		log.RandomSeedKey, seed,
		"train.samples", len(split.Train),
		"validation.samples", len(split.Validation),
	)
	return split, nil
}

// RepairJoin moves every validation row whose column value never occurs in
// training back into training: validation becomes its semi-join with
// training on column, and the anti-join rows are returned to training.
// It reports how many rows moved.
func (s Split) RepairJoin(f *Frame, column string) (Split, int, error) {
	keys, err := f.Keys(column)
	if err != nil {
		return Split{}, 0, err
	}

	inTrain := make(map[string]struct{}, len(s.Train))
	for _, i := range s.Train {
		inTrain[keys[i]] = struct{}{}
	}

	out := Split{Train: append([]int(nil), s.Train...)}
	moved := 0
	for _, i := range s.Validation {
		if _, ok := inTrain[keys[i]]; ok {
			out.Validation = append(out.Validation, i)
			continue
		}
		out.Train = append(out.Train, i)
		moved++
	}
	sort.Ints(out.Train)

	log.GetLoggerWithName("dataset").Info("repaired validation join",
		log.ColumnKey, column,
		log.MovedRowsKey, moved,
	)
	return out, moved, nil
}

// Check verifies that Train and Validation are disjoint and cover [0, n).
func (s Split) Check(n int) error {
	seen := make([]bool, n)
	for _, part := range [][]int{s.Train, s.Validation} {
		for _, i := range part {
			if i < 0 || i >= n {
				return errors.NewValueError("Split.Check", "row index out of range")
			}
			if seen[i] {
				return errors.NewValueError("Split.Check", "train and validation overlap")
			}
			seen[i] = true
		}
	}
	if len(s.Train)+len(s.Validation) != n {
		return errors.NewValueError("Split.Check", "partitions do not cover the table")
	}
	return nil
}
