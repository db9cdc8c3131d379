package models

import (
	"time"
)

// Sample is one prediction input in the fixed feature order:
// sepal length, sepal width, petal length, petal width (cm)
type Sample [4]float64

// Features returns the sample as a slice for the classifier
func (s Sample) Features() []float64 {
	return s[:]
}

// ClassLabel is one of the dataset's target classes
type ClassLabel struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PredictionResult is the /predict success body
type PredictionResult struct {
	Prediction int    `json:"prediction"`
	ClassName  string `json:"class_name"`
}

// DatasetInfo describes the training table served by the info endpoint
type DatasetInfo struct {
	Rows         int      `json:"rows"`
	Columns      int      `json:"columns"`
	FeatureNames []string `json:"feature_names"`
	ClassNames   []string `json:"class_names"`
}

// PredictionRecord is a stored prediction
type PredictionRecord struct {
	ID          int64     `json:"id" db:"id"`
	RequestID   string    `json:"request_id,omitempty" db:"request_id"`
	SepalLength float64   `json:"sepal_length" db:"sepal_length"`
	SepalWidth  float64   `json:"sepal_width" db:"sepal_width"`
	PetalLength float64   `json:"petal_length" db:"petal_length"`
	PetalWidth  float64   `json:"petal_width" db:"petal_width"`
	Prediction  int       `json:"prediction" db:"prediction"`
	ClassName   string    `json:"class_name" db:"class_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewPredictionRecord pairs a sample with its result
func NewPredictionRecord(requestID string, s Sample, r *PredictionResult) *PredictionRecord {
	return &PredictionRecord{
		RequestID:   requestID,
		SepalLength: s[0],
		SepalWidth:  s[1],
		PetalLength: s[2],
		PetalWidth:  s[3],
		Prediction:  r.Prediction,
		ClassName:   r.ClassName,
		CreatedAt:   time.Now().UTC(),
	}
}

// Sample rebuilds the input vector of a stored record
func (r *PredictionRecord) Sample() Sample {
	return Sample{r.SepalLength, r.SepalWidth, r.PetalLength, r.PetalWidth}
}

// PredictionStats summarises stored predictions
type PredictionStats struct {
	Total   int            `json:"total"`
	ByClass map[string]int `json:"by_class"`
}
