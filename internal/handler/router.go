package handler

import (
	"iris-api/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewRouter builds the gin engine with the middleware chain and all routes.
// limiter may be nil to disable rate limiting.
func NewRouter(h *Handler, limiter *rate.Limiter, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(logger),
		middleware.Metrics(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.CORS(),
		middleware.RateLimit(limiter),
	)

	h.RegisterRoutes(router)

	return router
}
