package errors

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "quota_exceeded", "access_denied")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)

	// gating metadata, present only on the relevant denials
	Remaining          *int   `json:"remaining,omitempty"`
	ResetTime          string `json:"reset_time,omitempty"`
	RequiredPermission string `json:"required_permission,omitempty"`
	RequiredFeature    string `json:"required_feature,omitempty"`
	AccessLevel        string `json:"access_level,omitempty"`
}

type ErrorInfo struct {
	category  string
	sanitized string
}
