package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"visionix/internal/metrics"
	"visionix/internal/middleware"
	"visionix/internal/state"
)

// NewRouter wires the full request surface: status API, OCR API, metrics
// exposition and health probe, behind recovery, instrumentation and
// security-header middleware.
func NewRouter(store *state.Store, m *metrics.Metrics, logger *zap.Logger, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Instrument(m, logger))
	r.Use(middleware.SecurityHeaders())
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := NewStatusHandlers(store)
	r.GET("/status", h.StatusGET)
	r.POST("/status", h.StatusPOST)
	r.GET("/status/update", h.StatusUpdateGET)
	r.GET("/ocr", h.OCRGET)
	r.POST("/ocr", h.OCRPOST)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	return r
}
