package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ordersvc/internal/controller/http/handlers"
	"ordersvc/pkg/health"
	"ordersvc/pkg/metrics"
)

type Router struct {
	order          *handlers.OrderHandler
	healthRegistry *health.Registry
}

func (r *Router) SetUp(engine *gin.Engine) {
	// Health checks (Kubernetes-style)
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	// Prometheus metrics
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	engine.POST("/orders", r.order.Create)
	engine.GET("/orders", r.order.Filter)
	engine.GET("/orders/:order_id", r.order.Get)
	engine.PATCH("/orders/:order_id/status", r.order.ChangeStatus)
	engine.GET("/orders/:order_id/events", r.order.GetEvents)
}

func NewRouter(order *handlers.OrderHandler, healthRegistry *health.Registry) *Router {
	return &Router{
		order:          order,
		healthRegistry: healthRegistry,
	}
}
