package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies, logger *zap.Logger) {
	h := newHandler(deps, logger)
	requireToken := JWTAuth(deps.Issuer, logger)

	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/auth/token", h.issueToken)
	v1.GET("/voices", h.listVoices)

	v1.POST("/tts", h.synthesize, requireToken)
	v1.POST("/translate", h.translate, requireToken)
	v1.POST("/diarize", h.diarize, requireToken)
	v1.GET("/transcriptions", h.listTranscriptions, requireToken)
	v1.GET("/transcriptions/:id", h.getTranscription, requireToken)

	// live transcription
	e.GET("/ws", h.liveTranscription, requireToken)
}
