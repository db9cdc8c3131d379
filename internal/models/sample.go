package models

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Query parameter names, in Sample order
const (
	ParamSepalLength = "sepal_length"
	ParamSepalWidth  = "sepal_width"
	ParamPetalLength = "petal_length"
	ParamPetalWidth  = "petal_width"
)

// SampleParams lists the required query parameters in Sample order
var SampleParams = [4]string{ParamSepalLength, ParamSepalWidth, ParamPetalLength, ParamPetalWidth}

// InvalidParamsMessage is the only error text returned to /predict clients.
// Missing and malformed parameters are deliberately not told apart.
const InvalidParamsMessage = "Invalid or missing query parameters."

// ValidationError reports every sample parameter that was missing or not a
// finite number
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid sample parameters %v: %v", e.Fields, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ParseSample reads the four sample parameters. All fields are checked and
// failures are collected into a single *ValidationError.
func ParseSample(values url.Values) (Sample, error) {
	var (
		sample Sample
		fields []string
		errs   error
	)

	for i, name := range SampleParams {
		v, err := parseFinite(values, name)
		if err != nil {
			fields = append(fields, name)
			errs = multierr.Append(errs, err)
			continue
		}
		sample[i] = v
	}

	if errs != nil {
		return Sample{}, &ValidationError{Fields: fields, Err: errs}
	}
	return sample, nil
}

func parseFinite(values url.Values, name string) (float64, error) {
	if _, ok := values[name]; !ok {
		return 0, fmt.Errorf("%s: missing", name)
	}

	raw := strings.TrimSpace(values.Get(name))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %q is not finite", name, raw)
	}
	return v, nil
}
