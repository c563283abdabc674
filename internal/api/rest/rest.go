package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Account endpoints
		v1.GET("/accounts/:stark_key", handler.GetAccount)

		// Token contract and token endpoints
		v1.GET("/contracts/:address", handler.GetContract)
		v1.GET("/contracts/:address/tokens/:token_id", handler.GetToken)
		v1.GET("/contracts/:address/tokens/:token_id/flows", handler.ListTokenFlows)

		// Layer-2 invocation tail
		v1.GET("/stark-contracts/:address/transactions/next", handler.NextTransaction)

		// Exchange endpoints
		v1.GET("/orders", handler.ListOrders)
		v1.GET("/orders/:order_id", handler.GetOrder)

		// Transfer endpoints
		v1.GET("/transfers/:hash", handler.GetTransfer)

		// Block endpoints
		v1.GET("/blocks/:number", handler.GetBlock)
		v1.GET("/blocks/:number/wait", handler.WaitBlock)
	}
}
