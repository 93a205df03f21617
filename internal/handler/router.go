package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 注册路由和中间件
func SetupRouter(h *Handler, metrics *Metrics) *gin.Engine {
	router := gin.New()

	router.Use(CorrelationMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(CORSMiddleware())
	router.Use(metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		earning := v1.Group("/earning")
		{
			earning.POST("/scan", h.Scan)
			earning.POST("/credit", h.Credit)
		}

		redemption := v1.Group("/redemption")
		{
			redemption.POST("/request", h.Redeem)
		}

		tds := v1.Group("/tds")
		{
			tds.POST("/fy-reset", h.FyReset)
		}

		participant := v1.Group("/participant")
		{
			participant.GET("/balance", h.Balance)
		}
	}

	return router
}
