package accounts

import (
	"net/http"
	"sort"
	"time"

	"codeberg.org/planhub/server/api/rest/pagination"
	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/internal/errors"
	"codeberg.org/planhub/server/internal/tiers"
	"codeberg.org/planhub/server/planhub/accounts"
	"codeberg.org/planhub/server/planhub/usage"
	"github.com/gin-gonic/gin"
)

const historyDays = 30

// GetUsageHandler godoc
// @Summary Get usage summary
// @Description Get the authenticated account's quota standing and recent call history
// @Tags accounts
// @Produce json
// @Success 200 {object} UsageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/accounts/usage [get]
// @Security BearerAuth
func GetUsageHandler(accountRepo *accounts.Repository, usageRepo *usage.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		account, err := accountRepo.FindByID(c.Request.Context(), accountID)
		if err != nil {
			if errors.IsNotFound(err) {
				errors.NotFound(c, "account")
				return
			}

			errors.InternalError(c, "failed to load account", err)

			return
		}

		history, err := usageRepo.DailyHistory(c.Request.Context(), accountID, historyDays)
		if err != nil {
			errors.InternalError(c, "failed to load usage history", err)
			return
		}

		c.JSON(http.StatusOK, buildUsageResponse(account, history))
	}
}

// ListUsageLogsHandler godoc
// @Summary List usage log entries
// @Description Page through the authenticated account's gated-call audit log, newest first
// @Tags accounts
// @Produce json
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} UsageLogResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/accounts/usage/logs [get]
// @Security BearerAuth
func ListUsageLogsHandler(usageRepo *usage.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		params := pagination.FromQuery(c, 50, 200)

		entries, total, err := usageRepo.ListEntries(c.Request.Context(), accountID, params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list usage entries", err)
			return
		}

		c.JSON(http.StatusOK, UsageLogResponse{
			Entries:    entries,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

func buildUsageResponse(account *accounts.Account, history []usage.DailyCount) UsageResponse {
	policy := tiers.PolicyFor(account.Tier)
	limit := account.EffectiveDailyLimit()

	resp := UsageResponse{
		Tier:                account.Tier.String(),
		DailyUsed:           account.DailyUsed,
		DailyLimit:          limitValue(limit),
		Remaining:           limit.Remaining(account.DailyUsed),
		MaxTokensPerRequest: limitValue(policy.MaxTokensPerRequest),
		ConcurrentRequests:  limitValue(policy.ConcurrentRequests),
		PremiumFeatures:     featureList(policy),
		History:             history,
	}

	if !limit.IsUnlimited() {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		resp.ResetTime = midnight.AddDate(0, 0, 1).Format(time.RFC3339)
	}

	return resp
}

// -1 stands for unlimited in the response contract
func limitValue(l tiers.Limit) int {
	if l.IsUnlimited() {
		return -1
	}

	return l.N()
}

func featureList(policy tiers.Policy) []string {
	features := make([]string, 0, len(policy.PremiumFeatures))
	for feature := range policy.PremiumFeatures {
		features = append(features, feature)
	}

	sort.Strings(features)

	return features
}
