package generate

import (
	"net/http"

	"codeberg.org/planhub/server/internal/errors"
	"codeberg.org/planhub/server/internal/gate"
	"codeberg.org/planhub/server/internal/llm"
	"codeberg.org/planhub/server/internal/tiers"
	"github.com/gin-gonic/gin"
)

// Handler godoc
// @Summary Generate a draft
// @Description Generate an AI plan or proposal draft. Counts against the daily quota; requires the ai_drafting feature.
// @Tags generate
// @Accept json
// @Produce json
// @Param request body Request true "Drafting request"
// @Success 200 {object} Response
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/generate [post]
// @Security BearerAuth
func Handler(generator llm.TextGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request

		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		account, ok := gate.AccountFromContext(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		// the output token count is capped by the caller's tier even when
		// the request asks for more
		maxTokens := req.MaxTokens
		ceiling := tiers.PolicyFor(account.Tier).MaxTokensPerRequest
		if !ceiling.IsUnlimited() && (maxTokens <= 0 || maxTokens > ceiling.N()) {
			maxTokens = ceiling.N()
		}

		gen, err := generator.GenerateDraft(c.Request.Context(), &llm.GenerateRequest{
			Prompt:    req.Prompt,
			Context:   req.Context,
			MaxTokens: maxTokens,
		})
		if err != nil {
			errors.DependencyUnavailable(c, "draft generation is temporarily unavailable", err)
			return
		}

		gate.ReportUsage(c, gen.TokensUsed(), gen.Cost)

		c.JSON(http.StatusOK, Response{
			Draft:        gen.Text,
			Model:        gen.Model,
			InputTokens:  gen.InputTokens,
			OutputTokens: gen.OutputTokens,
			Cost:         gen.Cost,
		})
	}
}
