package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/title-scrutiny/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Word templates
		v1.POST("/templates", handler.UploadTemplate)
		v1.GET("/templates", handler.ListTemplates)
		v1.GET("/templates/:template_id", handler.GetTemplate)
		v1.GET("/templates/:template_id/placeholders", handler.GetTemplatePlaceholders)

		// Deed type catalog (writes require authentication)
		v1.GET("/deed-types", handler.ListDeedTypes)
		v1.PUT("/deed-types/:deed_type", middleware.Auth(authCfg), handler.UpsertDeedType)

		sessions := v1.Group("/sessions")
		sessions.POST("", handler.CreateSession)
		sessions.GET("/:session_id", handler.GetSession)
		sessions.DELETE("/:session_id", handler.CloseSession)
		sessions.GET("/:session_id/stream", handler.Stream)
		sessions.PUT("/:session_id/template", handler.UseTemplate)
		sessions.PATCH("/:session_id/placeholders", handler.SetPlaceholders)
		sessions.GET("/:session_id/preview", handler.Preview)
		sessions.POST("/:session_id/drafts", handler.SaveDraft)

		// Property documents
		sessions.POST("/:session_id/documents", handler.AddDocument)
		sessions.DELETE("/:session_id/documents/:document_id", handler.RemoveDocument)
		sessions.POST("/:session_id/documents/:document_id/edit", handler.EditDocument)

		// Deed tables
		tables := sessions.Group("/:session_id/tables/:table")
		tables.GET("", handler.GetTable)
		tables.POST("/copy", handler.CopyPrevious)
		tables.POST("/deeds", handler.AddDeed)
		tables.POST("/deeds/insert", handler.InsertDeed)
		tables.PATCH("/deeds/:deed_id", handler.UpdateDeedField)
		tables.PATCH("/deeds/:deed_id/custom-fields", handler.UpdateDeedCustomField)
		tables.DELETE("/deeds/:deed_id", handler.RemoveDeed)
		tables.POST("/columns", handler.AddColumn)
		tables.DELETE("/columns/:column", handler.RemoveColumn)
		tables.PUT("/columns/:column/values/:deed_id", handler.SetColumnValue)
	}
}
