package apphttp

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"merchantry.io/app/internal/http/handlers"
	"merchantry.io/app/internal/http/middleware"
	"merchantry.io/app/pkg/metrics"
)

type RouterDeps struct {
	Checkout *handlers.CheckoutHandler
	Orders   *handlers.OrdersHandler
}

func NewRouter(l *slog.Logger, deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(l))
	r.Use(middleware.Recovery(l))
	r.Use(middleware.ErrorHandler(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		store := api.Group("/stores/:store_id")
		store.POST("/checkout", deps.Checkout.Create)
		store.GET("/orders", deps.Orders.List)
		store.GET("/orders/:id", deps.Orders.Get)
	}

	return r
}
