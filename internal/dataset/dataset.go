package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

//go:embed iris.csv
var irisCSV []byte

// ClassNames are the Iris target labels, indexed by class id
var ClassNames = []string{"setosa", "versicolor", "virginica"}

// Dataset is the loaded training table. It is never mutated after Load.
type Dataset struct {
	FeatureNames []string
	ClassNames   []string
	Features     [][]float64
	Targets      []int
}

// Load parses the embedded Iris table
func Load() (*Dataset, error) {
	return Parse(bytes.NewReader(irisCSV), ClassNames)
}

// Parse reads a CSV table whose header names the feature columns followed by
// a trailing integer target column.
func Parse(r io.Reader, classNames []string) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header must name at least one feature and the target, got %d columns", len(header))
	}

	ds := &Dataset{
		FeatureNames: append([]string(nil), header[:len(header)-1]...),
		ClassNames:   append([]string(nil), classNames...),
	}
	numFeatures := len(ds.FeatureNames)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		row := make([]float64, numFeatures)
		for i := 0; i < numFeatures; i++ {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", line, ds.FeatureNames[i], err)
			}
			row[i] = v
		}

		target, err := strconv.Atoi(record[numFeatures])
		if err != nil {
			return nil, fmt.Errorf("row %d target: %w", line, err)
		}
		if target < 0 || target >= len(ds.ClassNames) {
			return nil, fmt.Errorf("row %d target %d out of range [0, %d)", line, target, len(ds.ClassNames))
		}

		ds.Features = append(ds.Features, row)
		ds.Targets = append(ds.Targets, target)
	}

	if len(ds.Features) == 0 {
		return nil, fmt.Errorf("dataset has no rows")
	}

	return ds, nil
}

// Shape returns the number of rows and feature columns
func (d *Dataset) Shape() (rows, cols int) {
	return len(d.Features), len(d.FeatureNames)
}

// Matrix returns the features as a rows x cols dense matrix
func (d *Dataset) Matrix() *mat.Dense {
	rows, cols := d.Shape()
	data := make([]float64, 0, rows*cols)
	for _, row := range d.Features {
		data = append(data, row...)
	}
	return mat.NewDense(rows, cols, data)
}

// ClassName returns the display name for a class id
func (d *Dataset) ClassName(id int) (string, bool) {
	if id < 0 || id >= len(d.ClassNames) {
		return "", false
	}
	return d.ClassNames[id], true
}
