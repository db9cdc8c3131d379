package models

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func validValues() url.Values {
	return url.Values{
		ParamSepalLength: {"5.1"},
		ParamSepalWidth:  {"3.5"},
		ParamPetalLength: {"1.4"},
		ParamPetalWidth:  {"0.2"},
	}
}

func TestParseSample_Valid(t *testing.T) {
	sample, err := ParseSample(validValues())
	require.NoError(t, err)
	assert.Equal(t, Sample{5.1, 3.5, 1.4, 0.2}, sample)
	assert.Equal(t, []float64{5.1, 3.5, 1.4, 0.2}, sample.Features())
}

func TestParseSample_AcceptsIntegersAndWhitespace(t *testing.T) {
	values := validValues()
	values.Set(ParamSepalLength, " 5 ")
	values.Set(ParamPetalWidth, "-1e-1")

	sample, err := ParseSample(values)
	require.NoError(t, err)
	assert.Equal(t, 5.0, sample[0])
	assert.Equal(t, -0.1, sample[3])
}

func TestParseSample_Missing(t *testing.T) {
	for _, name := range SampleParams {
		t.Run(name, func(t *testing.T) {
			values := validValues()
			values.Del(name)

			_, err := ParseSample(values)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, []string{name}, verr.Fields)
		})
	}
}

func TestParseSample_Malformed(t *testing.T) {
	for _, raw := range []string{"abc", "", "NaN", "inf", "-Inf", "1e400", "1,5"} {
		t.Run(raw, func(t *testing.T) {
			values := validValues()
			values.Set(ParamPetalLength, raw)

			_, err := ParseSample(values)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, []string{ParamPetalLength}, verr.Fields)
		})
	}
}

func TestParseSample_AggregatesAllFailures(t *testing.T) {
	values := url.Values{
		ParamSepalWidth: {"x"},
		ParamPetalWidth: {"0.2"},
	}

	sample, err := ParseSample(values)
	assert.Equal(t, Sample{}, sample)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{ParamSepalLength, ParamSepalWidth, ParamPetalLength}, verr.Fields)
	assert.Len(t, multierr.Errors(verr.Err), 3)
}

func TestNewPredictionRecord(t *testing.T) {
	s := Sample{6.7, 3.0, 5.2, 2.3}
	rec := NewPredictionRecord("req-1", s, &PredictionResult{Prediction: 2, ClassName: "virginica"})

	assert.Equal(t, "req-1", rec.RequestID)
	assert.Equal(t, s, rec.Sample())
	assert.Equal(t, 2, rec.Prediction)
	assert.Equal(t, "virginica", rec.ClassName)
	assert.False(t, rec.CreatedAt.IsZero())
}
