package handler

import (
	"errors"
	"net/http"
	"strconv"

	"iris-api/internal/metrics"
	"iris-api/internal/models"
	"iris-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	serviceName = "iris-api"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Version is reported by the health endpoint; overridden at build time
var Version = "dev"

// Handler handles HTTP requests
type Handler struct {
	predictor *service.Predictor
	banner    string
	logger    *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(predictor *service.Predictor, banner string, logger *zap.Logger) *Handler {
	return &Handler{
		predictor: predictor,
		banner:    banner,
		logger:    logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Home)
	r.GET("/predict", h.Predict)

	api := r.Group("/api/v1")
	{
		api.GET("/classes", h.GetClasses)
		api.GET("/predictions", h.GetRecentPredictions)
		api.GET("/predictions/stats", h.GetStats)
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadyCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Home returns the banner and dataset overview as plain text
func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, h.predictor.InfoText(h.banner))
}

// Predict classifies the sample given in the query string
func (h *Handler) Predict(c *gin.Context) {
	sample, err := models.ParseSample(c.Request.URL.Query())
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			metrics.ValidationFailures.Inc()
			h.logger.Debug("Rejected prediction request",
				zap.Strings("fields", verr.Fields),
				zap.Error(verr.Err))
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": models.InvalidParamsMessage})
		return
	}

	result, err := h.predictor.Predict(c.Request.Context(), sample)
	if err != nil {
		h.logger.Error("Failed to predict", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	metrics.PredictionsTotal.WithLabelValues(result.ClassName).Inc()
	c.JSON(http.StatusOK, result)
}

// GetClasses returns the class labels the model predicts
func (h *Handler) GetClasses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"classes": h.predictor.Classes(),
		"dataset": h.predictor.Info(),
	})
}

// GetRecentPredictions returns stored predictions, newest first
func (h *Handler) GetRecentPredictions(c *gin.Context) {
	if !h.predictor.HistoryEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrHistoryDisabled.Error()})
		return
	}

	limit := defaultHistoryLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.predictor.RecentPredictions(limit)
	if err != nil {
		h.logger.Error("Failed to get predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": records,
		"total":       len(records),
	})
}

// GetStats returns prediction counts per class
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.predictor.Stats()
	if errors.Is(err, service.ErrHistoryDisabled) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": Version,
	})
}

// ReadyCheck reports whether the predictor is wired
func (h *Handler) ReadyCheck(c *gin.Context) {
	if h.predictor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
