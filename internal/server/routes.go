package server

import (
	"github.com/trellishq/trellis/backend/internal/server/middleware"
	"github.com/trellishq/trellis/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Ontology schema route
	apiRoutes.GET("/schema", routes.GetSchemaHandler)

	// Group routes
	apiRoutes.GET("/groups", routes.GetGroupsHandler, middleware.RequireAnyPermission("group.view", "group.view:all"))
	apiRoutes.POST("/groups", routes.CreateGroupHandler, middleware.RequirePermission("group.create"))
	apiRoutes.GET("/groups/:group_id", routes.GetGroupHandler, middleware.RequireAnyPermission("group.view", "group.view:all"))
	apiRoutes.GET("/groups/:group_id/hierarchy", routes.GetGroupHierarchyHandler, middleware.RequireAnyPermission("group.view", "group.view:all"))
	apiRoutes.GET("/groups/:group_id/path", routes.GetGroupPathHandler, middleware.RequireAnyPermission("group.view", "group.view:all"))
	apiRoutes.GET("/groups/:group_id/stats", routes.GetGroupStatsHandler, middleware.RequireAnyPermission("group.view", "group.view:all"))
	apiRoutes.PATCH("/groups/:group_id", routes.EditGroupHandler, middleware.RequirePermission("group.update"))
	apiRoutes.DELETE("/groups/:group_id", routes.DeleteGroupHandler, middleware.RequirePermission("group.delete"))
	apiRoutes.POST("/groups/:group_id/restore", routes.RestoreGroupHandler, middleware.RequirePermission("group.update"))
	apiRoutes.POST("/groups/:group_id/reembed", routes.ReembedGroupHandler, middleware.RequirePermission("group.reembed"))

	// Thing routes
	apiRoutes.POST("/groups/:group_id/things", routes.CreateThingHandler, middleware.RequirePermission("thing.create"))
	apiRoutes.POST("/groups/:group_id/things/bulk", routes.BulkCreateThingsHandler, middleware.RequirePermission("thing.create"))
	apiRoutes.POST("/groups/:group_id/things/import", routes.ImportThingsHandler, middleware.RequirePermission("thing.import"))
	apiRoutes.GET("/groups/:group_id/things", routes.GetThingsHandler, middleware.RequirePermission("thing.view"))
	apiRoutes.GET("/groups/:group_id/things/search", routes.SearchThingsHandler, middleware.RequirePermission("thing.view"))
	apiRoutes.GET("/groups/:group_id/things/:id", routes.GetThingHandler, middleware.RequirePermission("thing.view"))
	apiRoutes.PATCH("/groups/:group_id/things/:id", routes.EditThingHandler, middleware.RequirePermission("thing.update"))
	apiRoutes.DELETE("/groups/:group_id/things/:id", routes.DeleteThingHandler, middleware.RequirePermission("thing.delete"))
	apiRoutes.POST("/groups/:group_id/things/:id/restore", routes.RestoreThingHandler, middleware.RequirePermission("thing.update"))

	// Connection routes
	apiRoutes.POST("/groups/:group_id/connections", routes.CreateConnectionHandler, middleware.RequirePermission("connection.create"))
	apiRoutes.PUT("/groups/:group_id/connections", routes.UpsertConnectionHandler, middleware.RequirePermission("connection.create"))
	apiRoutes.POST("/groups/:group_id/connections/bulk", routes.BulkCreateConnectionsHandler, middleware.RequirePermission("connection.create"))
	apiRoutes.GET("/groups/:group_id/connections/from/:thing_id", routes.GetConnectionsFromHandler, middleware.RequirePermission("connection.view"))
	apiRoutes.GET("/groups/:group_id/connections/to/:thing_id", routes.GetConnectionsToHandler, middleware.RequirePermission("connection.view"))
	apiRoutes.GET("/groups/:group_id/connections/between/:from_id/:to_id", routes.GetConnectionsBetweenHandler, middleware.RequirePermission("connection.view"))
	apiRoutes.DELETE("/groups/:group_id/connections/:id", routes.DeleteConnectionHandler, middleware.RequirePermission("connection.delete"))

	// Event routes
	apiRoutes.POST("/groups/:group_id/events", routes.AppendEventHandler, middleware.RequirePermission("event.append"))
	apiRoutes.GET("/groups/:group_id/events", routes.GetEventsHandler, middleware.RequirePermission("event.view"))
	apiRoutes.GET("/groups/:group_id/events/recent", routes.GetRecentEventsHandler, middleware.RequirePermission("event.view"))
	apiRoutes.GET("/groups/:group_id/events/stats", routes.GetEventStatsHandler, middleware.RequirePermission("event.view"))

	// Knowledge routes
	apiRoutes.POST("/groups/:group_id/knowledge", routes.CreateKnowledgeHandler, middleware.RequirePermission("knowledge.create"))
	apiRoutes.POST("/groups/:group_id/knowledge/import", routes.ImportKnowledgeHandler, middleware.RequirePermission("knowledge.import"))
	apiRoutes.POST("/groups/:group_id/knowledge/search", routes.SearchKnowledgeHandler, middleware.RequirePermission("knowledge.search"))
	apiRoutes.GET("/groups/:group_id/knowledge/labels", routes.GetLabelsHandler, middleware.RequirePermission("knowledge.view"))
	apiRoutes.GET("/groups/:group_id/knowledge/by-label/:label", routes.GetKnowledgeByLabelHandler, middleware.RequirePermission("knowledge.view"))
	apiRoutes.GET("/groups/:group_id/knowledge/by-thing/:thing_id", routes.GetKnowledgeByThingHandler, middleware.RequirePermission("knowledge.view"))
	apiRoutes.GET("/groups/:group_id/knowledge/:id", routes.GetKnowledgeHandler, middleware.RequirePermission("knowledge.view"))
	apiRoutes.GET("/groups/:group_id/knowledge/:id/download", routes.GetKnowledgeDownloadHandler, middleware.RequirePermission("knowledge.view"))
	apiRoutes.PATCH("/groups/:group_id/knowledge/:id", routes.EditKnowledgeHandler, middleware.RequirePermission("knowledge.update"))
	apiRoutes.POST("/groups/:group_id/knowledge/:id/link", routes.LinkKnowledgeHandler, middleware.RequirePermission("knowledge.update"))
	apiRoutes.DELETE("/groups/:group_id/knowledge/:id", routes.DeleteKnowledgeHandler, middleware.RequirePermission("knowledge.delete"))
}
