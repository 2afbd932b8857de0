// Package dataset loads the bank marketing table, partitions it into
// training and validation rows and turns it into design matrices.
package dataset

import "github.com/YuminosukeSato/termdeposit/pkg/errors"

// Kind is the storage type of a column.
type Kind int

const (
	// Categorical columns hold string levels.
	Categorical Kind = iota
	// Numeric columns hold float64 values.
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Numeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Column describes one field of the CSV header.
type Column struct {
	Name string
	Kind Kind
}

// Schema is the ordered list of expected columns plus the label column.
type Schema struct {
	Columns []Column
	Label   string
}

const (
	// DefaultURL is the UCI archive holding bank-additional-full.csv.
	DefaultURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/00222/bank-additional.zip"
	// DefaultMember is the CSV path inside the archive.
	DefaultMember = "bank-additional/bank-additional-full.csv"
	// LabelColumn is the subscription outcome.
	LabelColumn = "y"
)

// BankAdditional returns the schema of bank-additional-full.csv.
func BankAdditional() Schema {
	return Schema{
		Label: LabelColumn,
		Columns: []Column{
			{"age", Numeric},
			{"job", Categorical},
			{"marital", Categorical},
			{"education", Categorical},
			{"default", Categorical},
			{"housing", Categorical},
			{"loan", Categorical},
			{"contact", Categorical},
			{"month", Categorical},
			{"day_of_week", Categorical},
			{"duration", Numeric},
			{"campaign", Numeric},
			{"pdays", Numeric},
			{"previous", Numeric},
			{"poutcome", Categorical},
			{"emp.var.rate", Numeric},
			{"cons.price.idx", Numeric},
			{"cons.conf.idx", Numeric},
			{"euribor3m", Numeric},
			{"nr.employed", Numeric},
			{LabelColumn, Categorical},
		},
	}
}

// Lookup returns the column definition by name.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks that the label is a categorical column and names are unique.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if _, dup := seen[c.Name]; dup {
			return errors.NewSchemaError(c.Name, 0, "duplicate column")
		}
		seen[c.Name] = struct{}{}
	}
	c, ok := s.Lookup(s.Label)
	if !ok {
		return errors.NewSchemaError(s.Label, 0, "label column not in schema")
	}
	if c.Kind != Categorical {
		return errors.NewSchemaError(s.Label, 0, "label column must be categorical")
	}
	return nil
}
