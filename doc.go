// Package termdeposit studies the UCI bank marketing data: which clients
// subscribe to a term deposit after a telephone campaign, and how well a
// range of classifiers can predict it.
//
// The repository is a library plus the termdeposit command. The library
// follows the scikit-learn shape: estimators are configured with functional
// options, learn with Fit(X, y), and expose Predict, PredictProba and
// GetParams/SetParams.
//
// # Quick Start
//
//	termdeposit models                       # list the zoo
//	termdeposit explore --output-dir out     # summaries, chi-squared tests, plots
//	termdeposit evaluate --models logistic,random_forest,gbm --metric auc
//	termdeposit run --config termdeposit.yaml
//
// Used as a library:
//
//	f, err := dataset.ReadFile("bank-additional-full.csv", dataset.BankAdditional())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	split, err := dataset.Partition(f, dataset.LabelColumn, 0.3, 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	split, _, err = split.RepairJoin(f, "age")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := benchmark.NewRunner(f.Subset(split.Train), f.Subset(split.Validation), dataset.LabelColumn)
//	results, err := runner.Run(ctx, benchmark.DefaultZoo(config.New()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(results.Table())
//
// # Packages
//
//   - dataset: download, CSV parsing, frames, label encoding, partitioning, design matrices
//   - stats: summaries, frequencies, chi-squared tests, point-biserial correlation
//   - visualize: histograms, bar charts and ROC curves (gonum/plot)
//   - metrics: accuracy, F1, AUC, ROC, log loss, average precision, Brier score
//   - preprocessing: StandardScaler, MinMaxScaler
//   - sklearn/...: the classifier zoo
//   - benchmark: zoo definition, evaluation, result tables and reports
//   - config: viper configuration with TERMDEPOSIT_* overrides
//   - core/model, core/parallel: estimator interfaces, fitted state, worker fan-out
//   - pkg/errors, pkg/log: structured errors and logging
package termdeposit
