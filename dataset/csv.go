package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/termdeposit/pkg/errors"
	"github.com/YuminosukeSato/termdeposit/pkg/log"
)

// Delimiter separates fields in the UCI bank files.
const Delimiter = ';'

// ReadCSV parses a semicolon-delimited file with a header row against schema.
// Header columns may come in any order but must match the schema exactly.
func ReadCSV(r io.Reader, schema Schema) (*Frame, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewSchemaError("", 0, "missing header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := schema.Lookup(name); !ok {
			return nil, errors.NewSchemaError(name, 0, "unknown column")
		}
		position[name] = i
	}
	for _, c := range schema.Columns {
		if _, ok := position[c.Name]; !ok {
			return nil, errors.NewSchemaError(c.Name, 0, "missing column")
		}
	}

	numeric := make(map[string][]float64)
	categorical := make(map[string][]string)
	rows := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d", rows+1)
		}
		rows++
		for _, c := range schema.Columns {
			raw := record[position[c.Name]]
			switch c.Kind {
			case Numeric:
				v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
				if err != nil {
					return nil, errors.NewSchemaError(c.Name, rows, "not a number: "+strconv.Quote(raw))
				}
				numeric[c.Name] = append(numeric[c.Name], v)
			default:
				categorical[c.Name] = append(categorical[c.Name], raw)
			}
		}
	}
	if rows == 0 {
		return nil, errors.ErrEmptyData
	}

	f := NewFrame(rows)
	for _, c := range schema.Columns {
		if c.Kind == Numeric {
			err = f.AddNumeric(c.Name, numeric[c.Name])
		} else {
			err = f.AddCategorical(c.Name, categorical[c.Name])
		}
		if err != nil {
			return nil, err
		}
	}

	log.GetLoggerWithName("dataset").Info("parsed dataset",
		log.OperationKey, log.OperationParse,
		log.SamplesKey, rows,
		log.FeaturesKey, len(schema.Columns),
	)
	return f, nil
}

// ReadFile opens path and parses it with ReadCSV.
func ReadFile(path string, schema Schema) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer fh.Close()
	return ReadCSV(fh, schema)
}
