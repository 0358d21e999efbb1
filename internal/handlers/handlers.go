package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/services"
)

type Handlers struct {
	Health     *HealthHandler
	Comparison *ComparisonHandler
	Auth       *AuthHandler
	Metrics    gin.HandlerFunc
}

func New(logger *logrus.Logger, services *services.Services, gatherer prometheus.Gatherer) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(logger, services.Health),
		Comparison: NewComparisonHandler(services.Comparison, logger),
		Auth:       NewAuthHandler(services.Auth, logger),
		Metrics:    MetricsHandler(gatherer),
	}
}

// errorResponse is the error envelope shared by every endpoint.
func errorResponse(code, message, field string) gin.H {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if field != "" {
		body["field"] = field
	}
	return gin.H{"error": body}
}
