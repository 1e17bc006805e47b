package server

import (
	"github.com/OFFIS-RIT/mango/internal/server/middleware"
	"github.com/OFFIS-RIT/mango/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/", routes.GetRootHandler)

	apiRoutes := e.Group("", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.POST("/upload", routes.UploadDocumentsHandler)
	apiRoutes.GET("/documents", routes.GetDocumentsHandler)
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler)

	// Query routes
	apiRoutes.POST("/query", routes.QueryHandler)

	// Knowledge graph routes
	apiRoutes.GET("/knowledge-graph", routes.GetKnowledgeGraphHandler)
	apiRoutes.GET("/knowledge-graph/entities/:name", routes.GetKnowledgeGraphEntityHandler)

	// Stats routes
	apiRoutes.GET("/stats", routes.GetStatsHandler)
}
