package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "termdeposit: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "termdeposit: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 8, 1)

	want := "termdeposit: Predict: dimension mismatch on axis 1 (features). Expected 10, got 8"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("GaussianNB", "Predict")

	want := "termdeposit: GaussianNB: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewSchemaError(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		row     int
		reason  string
		wantMsg string
	}{
		{
			name:    "header",
			column:  "euribor3m",
			row:     0,
			reason:  "missing from header",
			wantMsg: `termdeposit: schema: column "euribor3m": missing from header`,
		},
		{
			name:    "value",
			column:  "age",
			row:     12,
			reason:  `cannot parse "abc" as number`,
			wantMsg: `termdeposit: schema: column "age" at row 12: cannot parse "abc" as number`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSchemaError(tt.column, tt.row, tt.reason)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}
			var schemaErr *SchemaError
			if !As(err, &schemaErr) {
				t.Fatal("Error should be castable to *SchemaError")
			}
			if schemaErr.Column != tt.column {
				t.Errorf("Column = %s, want %s", schemaErr.Column, tt.column)
			}
		})
	}
}

func TestNewFetchError(t *testing.T) {
	statusErr := NewFetchError("http://example.invalid/bank.zip", 404, nil)
	if !strings.Contains(statusErr.Error(), "unexpected status 404") {
		t.Errorf("unexpected message: %v", statusErr)
	}

	cause := fmt.Errorf("connection refused")
	causeErr := NewFetchError("http://example.invalid/bank.zip", 0, cause)
	if !Is(causeErr, cause) {
		t.Error("FetchError should unwrap to its cause")
	}

	var fetchErr *FetchError
	if !As(causeErr, &fetchErr) {
		t.Fatal("Error should be castable to *FetchError")
	}
	if fetchErr.URL != "http://example.invalid/bank.zip" {
		t.Errorf("URL = %s", fetchErr.URL)
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("MLPClassifier", 200, "loss did not decrease")

	want := "MLPClassifier failed to converge after 200 iterations: loss did not decrease"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	var convWarn *ConvergenceWarning
	if !As(warn, &convWarn) {
		t.Error("Warning should be castable to *ConvergenceWarning")
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(error) {})

	Warn(NewUndefinedMetricWarning("precision", "no predicted samples", 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}

	var zl []error
	SetZerologWarnFunc(func(w error) { zl = append(zl, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("numeric", "categorical", "join column"))
	if len(zl) != 1 || len(got) != 1 {
		t.Errorf("zerolog func should take precedence: handler=%d zerolog=%d", len(got), len(zl))
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrSingleClass, "in LogisticRegression.Fit")

	if !Is(wrapped, ErrSingleClass) {
		t.Error("Expected Is(wrapped, ErrSingleClass) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in LogisticRegression.Fit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}
