// Package log defines standard attribute keys for termdeposit.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so that JSON logs from the benchmark can be filtered per model, per phase
// or per dataset column.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type, e.g. "LogisticRegression".
	ModelNameKey = "model.name"

	// ModelIDKey is the zoo identifier of a benchmark entry, e.g. "rbf_svm".
	ModelIDKey = "model.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	// Examples: "dataset", "benchmark", "stats"
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"

	// RunIDKey identifies one benchmark run.
	RunIDKey = "run.id"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of design-matrix columns.
	FeaturesKey = "data.features"

	// ColumnKey names a dataset column.
	ColumnKey = "data.column"

	// PositiveRateKey is the share of positive labels in a partition.
	PositiveRateKey = "data.positive_rate"

	// MovedRowsKey counts validation rows moved back to training by the join repair.
	MovedRowsKey = "data.moved_rows"

	// PathKey is a filesystem path (download target, plot, report).
	PathKey = "io.path"

	// URLKey is a remote address.
	URLKey = "io.url"

	// BytesKey is a transferred size in bytes.
	BytesKey = "io.bytes"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// F1Key records macro-averaged F1 in [0, 1].
	F1Key = "metrics.f1_macro"

	// AUCKey records the area under the ROC curve in [0, 1].
	AUCKey = "metrics.auc"

	// LossKey records a loss value during training or evaluation.
	LossKey = "metrics.loss"

	// PValueKey records a significance-test p-value.
	PValueKey = "metrics.p_value"

	// IterationKey records the current iteration number.
	IterationKey = "training.iteration"

	// EpochKey records the current epoch number.
	EpochKey = "training.epoch"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving an issue.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationFetch     = "fetch"
	OperationParse     = "parse"
	OperationPartition = "partition"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseExploration   = "exploration"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
