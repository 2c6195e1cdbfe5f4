package generate

import (
	"codeberg.org/planhub/server/internal/access"
	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/internal/gate"
	"codeberg.org/planhub/server/internal/llm"
	"codeberg.org/planhub/server/internal/tiers"
	"github.com/gin-gonic/gin"
)

// registers the drafting route behind the full admission chain
func RegisterRoutes(router *gin.RouterGroup, g *gate.Gate, generator llm.TextGenerator) {
	router.POST("/generate",
		auth.AuthMiddleware(),
		g.Protect(gate.Options{
			CallType:        "plan_generation",
			Feature:         tiers.FeatureAIDrafting,
			Permission:      access.PermUseAI,
			ProjectOptional: true,
		}),
		Handler(generator),
	)
}
