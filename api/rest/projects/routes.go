package projects

import (
	"codeberg.org/planhub/server/internal/access"
	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/planhub/projects"
	"github.com/gin-gonic/gin"
)

// registers project and membership routes
func RegisterRoutes(router *gin.RouterGroup, resolver *access.Resolver, projectRepo *projects.Repository) {
	projectGroup := router.Group("/projects")
	projectGroup.Use(auth.AuthMiddleware())
	{
		projectGroup.POST("", CreateProjectHandler(projectRepo))
		projectGroup.GET("", ListProjectsHandler(resolver))
		projectGroup.GET("/:id", GetProjectHandler(resolver, projectRepo))

		projectGroup.GET("/:id/members", ListMembersHandler(resolver, projectRepo))
		projectGroup.POST("/:id/members", AddMemberHandler(resolver))
		projectGroup.PUT("/:id/members/:member_id", UpdateMemberHandler(resolver))
		projectGroup.DELETE("/:id/members/:member_id", RemoveMemberHandler(resolver))
	}
}
