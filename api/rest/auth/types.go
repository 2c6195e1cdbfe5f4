package auth

import "codeberg.org/planhub/server/planhub/accounts"

// AuthResponse returned after successful OAuth callback
type AuthResponse struct {
	Account *accounts.Account `json:"account"`
	Token   string            `json:"token"`
}

// AccountResponse wraps account data
type AccountResponse struct {
	Account *accounts.Account `json:"account"`
}

// MessageResponse for simple success messages
type MessageResponse struct {
	Message string `json:"message"`
}

// UpdateProfileRequest for updating account profile
type UpdateProfileRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	AvatarURL string `json:"avatar_url" binding:"max=500"`
}
