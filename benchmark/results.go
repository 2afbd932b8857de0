package benchmark

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/visualize"
)

// Metric names accepted by Sort, Best and Bars.
const (
	MetricAccuracy = "accuracy"
	MetricF1       = "f1_macro"
	MetricAUC      = "auc"
	MetricLogLoss  = "log_loss"
	MetricAP       = "average_precision"
	MetricBrier    = "brier"
)

// Results is the table of one benchmark run, one row per model.
type Results struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Rows      []Result  `json:"results"`
}

// metric returns the value of name and whether larger is better.
func metric(r Result, name string) (float64, bool, error) {
	switch name {
	case MetricAccuracy:
		return r.Accuracy, true, nil
	case MetricF1:
		return r.F1Macro, true, nil
	case MetricAUC:
		return r.AUC, true, nil
	case MetricAP:
		return r.AveragePrecision, true, nil
	case MetricLogLoss:
		return r.LogLoss, false, nil
	case MetricBrier:
		return r.Brier, false, nil
	}
	return 0, false, errors.NewValidationError("metric", "unknown metric", name)
}

// CheckMetric reports whether name is a metric accepted by Sort and Best.
func CheckMetric(name string) error {
	_, _, err := metric(Result{}, name)
	return err
}

// Sort orders the rows best first by the named metric. Ties keep run order.
func (rs *Results) Sort(name string) error {
	if err := CheckMetric(name); err != nil {
		return err
	}
	sort.SliceStable(rs.Rows, func(i, j int) bool {
		a, higher, _ := metric(rs.Rows[i], name)
		b, _, _ := metric(rs.Rows[j], name)
		if higher {
			return a > b
		}
		return a < b
	})
	return nil
}

// Best returns the best row by the named metric without reordering.
func (rs *Results) Best(name string) (Result, error) {
	if len(rs.Rows) == 0 {
		return Result{}, errors.ErrEmptyData
	}
	best := rs.Rows[0]
	bv, higher, err := metric(best, name)
	if err != nil {
		return Result{}, err
	}
	for _, r := range rs.Rows[1:] {
		v, _, _ := metric(r, name)
		if (higher && v > bv) || (!higher && v < bv) {
			best, bv = r, v
		}
	}
	return best, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// Table renders the rows as a console table.
func (rs *Results) Table() string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))).
		Headers("model", "family", "accuracy", "f1_macro", "auc", "log_loss", "avg_prec", "brier", "time").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < 2:
				return cellStyle
			}
			return numberStyle
		})
	for _, r := range rs.Rows {
		t.Row(r.Name, r.Family,
			fmt.Sprintf("%.4f", r.Accuracy),
			fmt.Sprintf("%.4f", r.F1Macro),
			fmt.Sprintf("%.4f", r.AUC),
			fmt.Sprintf("%.4f", r.LogLoss),
			fmt.Sprintf("%.4f", r.AveragePrecision),
			fmt.Sprintf("%.4f", r.Brier),
			r.Duration.Round(time.Millisecond).String(),
		)
	}
	return t.String()
}

// WriteJSON writes the run as indented JSON.
func (rs *Results) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rs); err != nil {
		return errors.Wrap(err, "encode results")
	}
	return nil
}

// ReadJSON decodes a report written by WriteJSON.
func ReadJSON(r io.Reader) (*Results, error) {
	var rs Results
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, errors.Wrap(err, "decode results")
	}
	return &rs, nil
}

// ROCCurves returns the validation ROC curve of every row.
func (rs *Results) ROCCurves() []visualize.Curve {
	out := make([]visualize.Curve, 0, len(rs.Rows))
	for _, r := range rs.Rows {
		if len(r.FPR) == 0 {
			continue
		}
		out = append(out, visualize.Curve{Name: r.Name, FPR: r.FPR, TPR: r.TPR})
	}
	return out
}

// Bars returns one bar per row for the named metric.
func (rs *Results) Bars(name string) ([]visualize.Bar, error) {
	out := make([]visualize.Bar, 0, len(rs.Rows))
	for _, r := range rs.Rows {
		v, _, err := metric(r, name)
		if err != nil {
			return nil, err
		}
		out = append(out, visualize.Bar{Label: r.Name, Value: v})
	}
	return out, nil
}
