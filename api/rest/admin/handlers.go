package admin

import (
	"net/http"

	"codeberg.org/planhub/server/internal/errors"
	"codeberg.org/planhub/server/internal/tiers"
	"codeberg.org/planhub/server/planhub/accounts"
	"github.com/gin-gonic/gin"
)

// GetAccount godoc
// @Summary Get any account by ID (admin)
// @Description Admin-only endpoint to inspect an account's tier and usage counters
// @Tags admin
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} AccountAdminResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/admin/accounts/{id} [get]
// @Security AdminKeyAuth
func GetAccount(accountRepo *accounts.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		account, err := accountRepo.FindByID(c.Request.Context(), accountID)
		if err != nil {
			errors.NotFound(c, "account")
			return
		}

		c.JSON(http.StatusOK, AccountAdminResponse{Account: account})
	}
}

// UpdateTier godoc
// @Summary Change an account's tier (admin)
// @Description The sole sanctioned path for tier changes; appends an immutable tier-change history record
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body UpdateTierRequest true "New tier with actor and reason"
// @Success 200 {object} AccountAdminResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/accounts/{id}/tier [put]
// @Security AdminKeyAuth
func UpdateTier(accountRepo *accounts.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		var req UpdateTierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		// strict parse: the lenient fallback is for stored rows, not input
		tier := tiers.ParseTier(req.Tier)
		if tier.String() != req.Tier {
			errors.BadRequest(c, "unknown tier: "+req.Tier, nil)
			return
		}

		account, err := accountRepo.UpdateTier(c.Request.Context(), accountID, tier, req.Actor, req.Reason)
		if err != nil {
			if errors.IsNotFound(err) {
				errors.NotFound(c, "account")
				return
			}

			errors.InternalError(c, "failed to update tier", err)

			return
		}

		c.JSON(http.StatusOK, AccountAdminResponse{Account: account})
	}
}

// GetTierHistory godoc
// @Summary Get an account's tier-change history (admin)
// @Description Append-only audit trail of tier mutations, newest first
// @Tags admin
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} TierHistoryResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/accounts/{id}/tier-history [get]
// @Security AdminKeyAuth
func GetTierHistory(accountRepo *accounts.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		changes, err := accountRepo.ListTierChanges(c.Request.Context(), accountID)
		if err != nil {
			errors.InternalError(c, "failed to load tier history", err)
			return
		}

		c.JSON(http.StatusOK, TierHistoryResponse{
			Changes: changes,
			Total:   len(changes),
		})
	}
}
