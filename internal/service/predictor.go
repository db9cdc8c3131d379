package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"iris-api/internal/classifier"
	"iris-api/internal/dataset"
	"iris-api/internal/models"

	"go.uber.org/zap"
)

// ErrHistoryDisabled is returned by history queries when no store is configured
var ErrHistoryDisabled = errors.New("prediction history is disabled")

// Classifier maps a feature vector to a class index
type Classifier interface {
	Predict(features []float64) (int, error)
}

// HistoryStore persists served predictions
type HistoryStore interface {
	SavePrediction(rec *models.PredictionRecord) error
	GetRecentPredictions(limit int) ([]*models.PredictionRecord, error)
	GetStats() (*models.PredictionStats, error)
}

// ModelConfig holds the classifier hyper-parameters
type ModelConfig struct {
	C         float64
	MaxIter   int
	Tolerance float64
}

// Predictor is built once at startup and shared read-only by all requests
type Predictor struct {
	info       models.DatasetInfo
	classifier Classifier
	history    HistoryStore
	logger     *zap.Logger
}

// NewPredictor wires an already fitted classifier to the dataset metadata.
// history may be nil.
func NewPredictor(ds *dataset.Dataset, clf Classifier, history HistoryStore, logger *zap.Logger) *Predictor {
	rows, cols := ds.Shape()
	return &Predictor{
		info: models.DatasetInfo{
			Rows:         rows,
			Columns:      cols,
			FeatureNames: append([]string(nil), ds.FeatureNames...),
			ClassNames:   append([]string(nil), ds.ClassNames...),
		},
		classifier: clf,
		history:    history,
		logger:     logger,
	}
}

// Train loads the embedded dataset and fits the classifier
func Train(cfg ModelConfig, logger *zap.Logger) (*dataset.Dataset, *classifier.LogisticRegression, error) {
	ds, err := dataset.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	model := classifier.NewLogisticRegression(
		classifier.WithC(cfg.C),
		classifier.WithMaxIter(cfg.MaxIter),
		classifier.WithTolerance(cfg.Tolerance),
	)
	if err := model.Fit(ds.Matrix(), ds.Targets); err != nil {
		return nil, nil, fmt.Errorf("failed to fit classifier: %w", err)
	}

	accuracy, err := model.Score(ds.Matrix(), ds.Targets)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to score classifier: %w", err)
	}

	rows, cols := ds.Shape()
	logger.Info("Classifier fitted",
		zap.Int("rows", rows),
		zap.Int("columns", cols),
		zap.Int("iterations", model.Iterations()),
		zap.String("status", model.Status().String()),
		zap.Float64("training_accuracy", accuracy))

	return ds, model, nil
}

// Info returns the dataset metadata
func (p *Predictor) Info() models.DatasetInfo {
	return p.info
}

// InfoText renders the plain-text body of the info endpoint
func (p *Predictor) InfoText(banner string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", banner)
	b.WriteString("📊 Dataset Overview:\n")
	fmt.Fprintf(&b, "- Rows: %d\n", p.info.Rows)
	fmt.Fprintf(&b, "- Columns: %d\n", p.info.Columns)
	fmt.Fprintf(&b, "- Features: %s\n", strings.Join(p.info.FeatureNames, ", "))
	fmt.Fprintf(&b, "- Target Classes: %s\n", strings.Join(p.info.ClassNames, ", "))
	return b.String()
}

// Classes returns the class labels in index order
func (p *Predictor) Classes() []models.ClassLabel {
	labels := make([]models.ClassLabel, len(p.info.ClassNames))
	for i, name := range p.info.ClassNames {
		labels[i] = models.ClassLabel{ID: i, Name: name}
	}
	return labels
}

// Predict classifies a validated sample. Recording to history is best effort
// and never fails the prediction.
func (p *Predictor) Predict(ctx context.Context, sample models.Sample) (*models.PredictionResult, error) {
	idx, err := p.classifier.Predict(sample.Features())
	if err != nil {
		return nil, fmt.Errorf("classifier failed: %w", err)
	}
	if idx < 0 || idx >= len(p.info.ClassNames) {
		return nil, fmt.Errorf("classifier returned unknown class %d", idx)
	}

	result := &models.PredictionResult{
		Prediction: idx,
		ClassName:  p.info.ClassNames[idx],
	}

	if p.history != nil {
		rec := models.NewPredictionRecord(RequestIDFromContext(ctx), sample, result)
		if err := p.history.SavePrediction(rec); err != nil {
			p.logger.Error("Failed to save prediction", zap.Error(err))
		}
	}

	return result, nil
}

// HistoryEnabled reports whether predictions are being recorded
func (p *Predictor) HistoryEnabled() bool {
	return p.history != nil
}

// RecentPredictions returns the newest stored predictions
func (p *Predictor) RecentPredictions(limit int) ([]*models.PredictionRecord, error) {
	if p.history == nil {
		return nil, ErrHistoryDisabled
	}
	return p.history.GetRecentPredictions(limit)
}

// Stats returns stored prediction counts
func (p *Predictor) Stats() (*models.PredictionStats, error) {
	if p.history == nil {
		return nil, ErrHistoryDisabled
	}
	return p.history.GetStats()
}
