package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/imports/:kind", handler.UploadImport)
		v1.POST("/imports/:kind/async", handler.UploadImportAsync)
		v1.GET("/imports/:id", handler.GetImport)

		v1.POST("/teachers/assign-role", handler.roles.AssignRole)
	}
}
