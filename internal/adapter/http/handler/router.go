package handler

import (
	"github.com/RSAC2025/rsac/internal/adapter/http/middleware"
	"github.com/RSAC2025/rsac/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Commission     ports.CommissionCalculator
	Center         ports.CenterCalculator
	Aggregator     ports.TransferAggregator
	Disburser      ports.DisbursementEngine
	PayableRepo    ports.PayableRepository
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Pipeline trigger and query routes, operator-token protected.
	rewardHandler := NewRewardHandler(deps.Commission, deps.Center, deps.Aggregator, deps.Disburser, deps.PayableRepo)
	auth := middleware.OperatorAuth(deps.TokenSvc, deps.Logger)

	v1 := r.Group("/api/v1")
	rewards := v1.Group("/rewards", auth)
	{
		rewards.POST("/calculate-commission", rewardHandler.CalculateCommission)
		rewards.POST("/calculate-center", rewardHandler.CalculateCenter)
		rewards.POST("/aggregate", rewardHandler.Aggregate)
		rewards.POST("/disburse", rewardHandler.Disburse)
		rewards.GET("/payables", rewardHandler.ListPayables)
	}

	return r
}
