package auth

import (
	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/planhub/accounts"
	"github.com/gin-gonic/gin"
)

// registers all authentication routes
func RegisterRoutes(router *gin.RouterGroup, accountRepo *accounts.Repository) {
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/:provider", BeginAuthHandler(accountRepo))
		authGroup.GET("/:provider/callback", CallbackHandler(accountRepo))
		authGroup.POST("/logout", LogoutHandler())
		authGroup.GET("/me", auth.AuthMiddleware(), GetCurrentAccountHandler(accountRepo))
		authGroup.PUT("/me", auth.AuthMiddleware(), UpdateProfileHandler(accountRepo))
	}
}
