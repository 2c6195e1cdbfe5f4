package main

import (
	"codeberg.org/planhub/server/api/rest/accounts"
	"codeberg.org/planhub/server/api/rest/admin"
	"codeberg.org/planhub/server/api/rest/auth"
	"codeberg.org/planhub/server/api/rest/generate"
	"codeberg.org/planhub/server/api/rest/health"
	"codeberg.org/planhub/server/api/rest/projects"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware())
	router.GET("/health", health.Handler)

	v1 := router.Group("/api/v1")
	v1.Use(IPRateLimitMiddleware(server.redis))

	{
		v1.GET("/ping", health.PingHandler)

		auth.RegisterRoutes(v1, server.accountRepo)
		accounts.RegisterRoutes(v1, server.accountRepo, server.usageRepo)
		projects.RegisterRoutes(v1, server.resolver, server.projectRepo)
		generate.RegisterRoutes(v1, server.gate, server.services.Generator)
		admin.RegisterRoutes(v1, server.accountRepo)
	}
}
