// Package http assembles the gin router and HTTP server for the API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailsweep/mailsweep/internal/application/bulkops"
	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
	"github.com/mailsweep/mailsweep/internal/interfaces/http/handlers"
	"github.com/mailsweep/mailsweep/internal/interfaces/http/middleware"
)

// RouterDeps carries everything the router needs. MetricsHandler and
// RequestMetrics may be nil.
type RouterDeps struct {
	Service         bulkops.Service
	Logger          logging.Logger
	ReadinessChecks map[string]handlers.ReadinessCheck
	MetricsHandler  http.Handler
	RequestMetrics  middleware.RequestMetrics
}

// NewRouter builds the API's gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		middleware.Recovery(deps.Logger),
		middleware.RequestLogger(deps.Logger, deps.RequestMetrics),
	)

	health := handlers.NewHealthHandler(deps.ReadinessChecks)
	engine.GET("/healthz", health.Live)
	engine.GET("/readyz", health.Ready)
	if deps.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	ops := handlers.NewBulkOpsHandler(deps.Service)
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/operations/delete", ops.Delete)
		v1.POST("/operations/modify", ops.Modify)
		v1.GET("/operations/:id", ops.Get)
		v1.GET("/operations", ops.List)
	}

	return engine
}
