package app

import (
	"github.com/gin-gonic/gin"

	"ordersvc/pkg/logger"
	"ordersvc/pkg/metrics"
)

func NewGinEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(
		logger.CorrelationMiddleware(),
		metrics.GinMiddleware(),
		logger.RequestLogger(),
		gin.Recovery(),
	)
	return engine
}
