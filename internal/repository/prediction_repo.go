package repository

import (
	"database/sql"
	"fmt"

	"iris-api/internal/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// PredictionRepository stores served predictions in SQLite
type PredictionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPredictionRepository opens (or creates) the history database
func NewPredictionRepository(dbPath string, logger *zap.Logger) (*PredictionRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; handlers share one connection.
	db.SetMaxOpenConns(1)

	repo := &PredictionRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Prediction repository initialized", zap.String("db_path", dbPath))

	return repo, nil
}

// migrate creates tables
func (r *PredictionRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT,
		sepal_length REAL NOT NULL,
		sepal_width REAL NOT NULL,
		petal_length REAL NOT NULL,
		petal_width REAL NOT NULL,
		prediction INTEGER NOT NULL,
		class_name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prediction ON predictions(prediction);
	CREATE INDEX IF NOT EXISTS idx_created_at ON predictions(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SavePrediction inserts a record and sets its ID
func (r *PredictionRepository) SavePrediction(rec *models.PredictionRecord) error {
	query := `
		INSERT INTO predictions (
			request_id, sepal_length, sepal_width, petal_length, petal_width,
			prediction, class_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		rec.RequestID,
		rec.SepalLength,
		rec.SepalWidth,
		rec.PetalLength,
		rec.PetalWidth,
		rec.Prediction,
		rec.ClassName,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// GetRecentPredictions returns up to limit records, newest first
func (r *PredictionRepository) GetRecentPredictions(limit int) ([]*models.PredictionRecord, error) {
	query := `
		SELECT id, request_id, sepal_length, sepal_width, petal_length, petal_width,
		       prediction, class_name, created_at
		FROM predictions
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	records := make([]*models.PredictionRecord, 0, limit)
	for rows.Next() {
		rec := &models.PredictionRecord{}
		var requestID sql.NullString
		err := rows.Scan(
			&rec.ID,
			&requestID,
			&rec.SepalLength,
			&rec.SepalWidth,
			&rec.PetalLength,
			&rec.PetalWidth,
			&rec.Prediction,
			&rec.ClassName,
			&rec.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan prediction", zap.Error(err))
			continue
		}
		rec.RequestID = requestID.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}

	return records, nil
}

// GetStats returns the total count and counts per class name
func (r *PredictionRepository) GetStats() (*models.PredictionStats, error) {
	stats := &models.PredictionStats{ByClass: make(map[string]int)}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM predictions").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}

	query := `
		SELECT class_name, COUNT(*) as count
		FROM predictions
		GROUP BY prediction, class_name
		ORDER BY prediction
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to group predictions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			continue
		}
		stats.ByClass[name] = count
	}

	return stats, rows.Err()
}

// Close closes the database connection
func (r *PredictionRepository) Close() error {
	return r.db.Close()
}
