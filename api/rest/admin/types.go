package admin

import "codeberg.org/planhub/server/planhub/accounts"

// UpdateTierRequest for changing an account's tier
type UpdateTierRequest struct {
	Tier   string `json:"tier" binding:"required"`
	Actor  string `json:"actor" binding:"required,max=200"`
	Reason string `json:"reason" binding:"required,max=1000"`
}

// AccountAdminResponse wraps an account for admin endpoints
type AccountAdminResponse struct {
	Account *accounts.Account `json:"account"`
}

// TierHistoryResponse wraps an account's tier-change audit trail
type TierHistoryResponse struct {
	Changes []*accounts.TierChange `json:"changes"`
	Total   int                    `json:"total"`
}
