// Package server implements the order REST contract over the local store. It
// stands in for the hosted backend during development and in tests.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/config"
	"github.com/licshop/ordermgr/internal/localstore"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, orders *localstore.Store, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Collection endpoints
	router.GET("/orders.php", HandleListOrders(orders, logger))
	router.POST("/orders.php", HandleCreateOrder(orders, logger))

	// Single-order endpoints; POST carries the {action: ...} body
	router.GET("/order.php/:id", HandleGetOrder(orders, logger))
	router.PUT("/order.php/:id", HandleUpdateOrder(orders, logger))
	router.DELETE("/order.php/:id", HandleDeleteOrder(orders, logger))
	router.POST("/order.php/:id", HandleOrderAction(orders, logger))

	// CSV interchange
	router.GET("/export.php", HandleExportCSV(orders, logger))
	router.POST("/import", HandleImportCSV(orders, logger))

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
