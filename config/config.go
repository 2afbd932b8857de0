// Package config holds the run configuration of termdeposit on top of viper:
// built-in defaults, an optional YAML/JSON/TOML file and TERMDEPOSIT_*
// environment overrides, in increasing precedence.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/YuminosukeSato/termdeposit/dataset"
	"github.com/YuminosukeSato/termdeposit/pkg/errors"
)

// EnvPrefix is prepended to every environment override, e.g.
// TERMDEPOSIT_SPLIT_SEED or TERMDEPOSIT_MODELS_KNN_K.
const EnvPrefix = "TERMDEPOSIT"

// Config manages configuration using Viper.
type Config struct {
	v *viper.Viper
}

// New creates a configuration with defaults and environment overrides.
func New() *Config {
	v := viper.New()

	// データセット
	v.SetDefault("dataset.url", dataset.DefaultURL)
	v.SetDefault("dataset.member", dataset.DefaultMember)
	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.cache_dir", "")
	v.SetDefault("dataset.drop_columns", []string{"duration"})

	// 分割
	v.SetDefault("split.validation_fraction", 0.3)
	v.SetDefault("split.seed", 42)
	v.SetDefault("split.join_column", "age")

	v.SetDefault("output.dir", "out")
	v.SetDefault("output.plots", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// モデル
	v.SetDefault("models.only", []string{})
	v.SetDefault("models.n_jobs", 0)
	v.SetDefault("models.random_state", 42)
	v.SetDefault("models.logistic.c", 1.0)
	v.SetDefault("models.logistic.max_iter", 300)
	v.SetDefault("models.knn.k", 15)
	v.SetDefault("models.knn.weights", "uniform")
	v.SetDefault("models.tree.max_depth", 8)
	v.SetDefault("models.forest.n_estimators", 100)
	v.SetDefault("models.bagging.n_estimators", 10)
	v.SetDefault("models.adaboost.n_estimators", 50)
	v.SetDefault("models.gbm.n_estimators", 100)
	v.SetDefault("models.gbm.learning_rate", 0.1)
	v.SetDefault("models.gbm.max_depth", 3)
	v.SetDefault("models.svm.c", 1.0)
	v.SetDefault("models.svm.max_samples", 2000)
	v.SetDefault("models.qda.reg_param", 0.1)
	v.SetDefault("models.mlp.hidden_units", 32)
	v.SetDefault("models.mlp.max_iter", 200)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile merges a configuration file; the format follows the extension.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	return c.Validate()
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if f := c.ValidationFraction(); f <= 0 || f >= 1 {
		return errors.NewValidationError("split.validation_fraction", "must lie in (0, 1)", f)
	}
	if c.KNNNeighbors() < 1 {
		return errors.NewValidationError("models.knn.k", "must be >= 1", c.KNNNeighbors())
	}
	if c.SVMMaxSamples() < 2 {
		return errors.NewValidationError("models.svm.max_samples", "must be >= 2", c.SVMMaxSamples())
	}
	if r := c.QDARegParam(); r < 0 || r > 1 {
		return errors.NewValidationError("models.qda.reg_param", "must lie in [0, 1]", r)
	}
	switch c.LogFormat() {
	case "console", "json":
	default:
		return errors.NewValidationError("logging.format", "must be console or json", c.LogFormat())
	}
	return nil
}

// Set overrides a key, e.g. from a command-line flag.
func (c *Config) Set(key string, value interface{}) { c.v.Set(key, value) }

// Viper exposes the underlying viper instance for flag binding.
func (c *Config) Viper() *viper.Viper { return c.v }

func (c *Config) DatasetURL() string          { return c.v.GetString("dataset.url") }
func (c *Config) DatasetMember() string       { return c.v.GetString("dataset.member") }
func (c *Config) DataPath() string            { return c.v.GetString("dataset.path") }
func (c *Config) CacheDir() string            { return c.v.GetString("dataset.cache_dir") }
func (c *Config) DropColumns() []string       { return c.v.GetStringSlice("dataset.drop_columns") }
func (c *Config) ValidationFraction() float64 { return c.v.GetFloat64("split.validation_fraction") }
func (c *Config) Seed() uint64                { return c.v.GetUint64("split.seed") }
func (c *Config) JoinColumn() string          { return c.v.GetString("split.join_column") }
func (c *Config) OutputDir() string           { return c.v.GetString("output.dir") }
func (c *Config) Plots() bool                 { return c.v.GetBool("output.plots") }
func (c *Config) LogLevel() string            { return c.v.GetString("logging.level") }
func (c *Config) LogFormat() string           { return c.v.GetString("logging.format") }

func (c *Config) OnlyModels() []string     { return c.v.GetStringSlice("models.only") }
func (c *Config) NJobs() int               { return c.v.GetInt("models.n_jobs") }
func (c *Config) RandomState() uint64      { return c.v.GetUint64("models.random_state") }
func (c *Config) LogisticC() float64       { return c.v.GetFloat64("models.logistic.c") }
func (c *Config) LogisticMaxIter() int     { return c.v.GetInt("models.logistic.max_iter") }
func (c *Config) KNNNeighbors() int        { return c.v.GetInt("models.knn.k") }
func (c *Config) KNNWeights() string       { return c.v.GetString("models.knn.weights") }
func (c *Config) TreeMaxDepth() int        { return c.v.GetInt("models.tree.max_depth") }
func (c *Config) ForestEstimators() int    { return c.v.GetInt("models.forest.n_estimators") }
func (c *Config) BaggingEstimators() int   { return c.v.GetInt("models.bagging.n_estimators") }
func (c *Config) AdaBoostEstimators() int  { return c.v.GetInt("models.adaboost.n_estimators") }
func (c *Config) GBMEstimators() int       { return c.v.GetInt("models.gbm.n_estimators") }
func (c *Config) GBMLearningRate() float64 { return c.v.GetFloat64("models.gbm.learning_rate") }
func (c *Config) GBMMaxDepth() int         { return c.v.GetInt("models.gbm.max_depth") }
func (c *Config) SVMC() float64            { return c.v.GetFloat64("models.svm.c") }
func (c *Config) SVMMaxSamples() int       { return c.v.GetInt("models.svm.max_samples") }
func (c *Config) QDARegParam() float64     { return c.v.GetFloat64("models.qda.reg_param") }
func (c *Config) MLPHiddenUnits() int      { return c.v.GetInt("models.mlp.hidden_units") }
func (c *Config) MLPMaxIter() int          { return c.v.GetInt("models.mlp.max_iter") }
