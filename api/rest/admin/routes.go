package admin

import (
	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/planhub/accounts"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, accountRepo *accounts.Repository) {
	admin := router.Group("/admin")
	admin.Use(auth.AdminAuthMiddleware())

	admin.GET("/accounts/:id", GetAccount(accountRepo))
	admin.PUT("/accounts/:id/tier", UpdateTier(accountRepo))
	admin.GET("/accounts/:id/tier-history", GetTierHistory(accountRepo))
}
