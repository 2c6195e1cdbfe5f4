package accounts

import (
	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/planhub/accounts"
	"codeberg.org/planhub/server/planhub/usage"
	"github.com/gin-gonic/gin"
)

// registers account routes
func RegisterRoutes(router *gin.RouterGroup, accountRepo *accounts.Repository, usageRepo *usage.Repository) {
	accountGroup := router.Group("/accounts")
	accountGroup.Use(auth.AuthMiddleware())
	{
		accountGroup.GET("/usage", GetUsageHandler(accountRepo, usageRepo))
		accountGroup.GET("/usage/logs", ListUsageLogsHandler(usageRepo))
	}
}
