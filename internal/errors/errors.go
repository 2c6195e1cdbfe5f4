package errors

import (
	"net/http"
	"strings"
	"time"

	"codeberg.org/planhub/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.InternalError(), errors.BadRequest(), etc. for critical errors
//     These functions handle both logging and HTTP response automatically
//   - Use logger.ErrorErr() only for non-critical errors where processing continues
//   - Never call both logger.ErrorErr() and errors.InternalError() for the same error
//
// For services/repositories/internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller (handler) decide how to log and respond
//   - Do not log errors in non-handler code (avoid double logging)
//
// Gating denials carry machine-readable codes plus whatever metadata the
// client needs to react (remaining quota, reset time, missing permission or
// feature) without a second round trip.

// standard error codes
const (
	CodeUnauthorized           = "authentication_required"
	CodeProjectNotFound        = "project_not_found"
	CodeAccessDenied           = "access_denied"
	CodePermissionInsufficient = "permission_insufficient"
	CodeFeatureDenied          = "feature_denied"
	CodeQuotaExceeded          = "quota_exceeded"
	CodeRequestTooLarge        = "request_too_large"
	CodeConcurrencyExceeded    = "concurrency_exceeded"
	CodeDependencyUnavailable  = "dependency_unavailable"
	CodeNotFound               = "not_found"
	CodeValidationError        = "validation_error"
	CodeServerError            = "server_error"
	CodeBadRequest             = "bad_request"
	CodeConflict               = "conflict"
)

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}

	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   CodeUnauthorized,
		Message: message,
	})
}

// returns the generic 404 used for projects that are missing, inactive, or
// foreign; the message deliberately does not distinguish those cases
func ProjectNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeProjectNotFound,
		Message: "project not found",
	})
}

// returns a 403 for callers with no ownership or membership on a project
func AccessDenied(c *gin.Context, message string) {
	if message == "" {
		message = "you do not have access to this project"
	}

	c.JSON(http.StatusForbidden, ErrorResponse{
		Error:   CodeAccessDenied,
		Message: message,
	})
}

// returns a 403 naming the permission the caller's access level lacks
func PermissionInsufficient(c *gin.Context, permission, accessLevel string) {
	c.JSON(http.StatusForbidden, ErrorResponse{
		Error:              CodePermissionInsufficient,
		Message:            "your access level does not include the required permission",
		RequiredPermission: permission,
		AccessLevel:        accessLevel,
	})
}

// returns a 403 naming the premium feature the caller's tier lacks
func FeatureDenied(c *gin.Context, feature string) {
	c.JSON(http.StatusForbidden, ErrorResponse{
		Error:           CodeFeatureDenied,
		Message:         "your plan does not include this feature",
		RequiredFeature: feature,
	})
}

// returns a 429 with remaining quota and the next reset time
func QuotaExceeded(c *gin.Context, message string, remaining int, resetTime time.Time) {
	if message == "" {
		message = "daily request limit reached"
	}

	resp := ErrorResponse{
		Error:     CodeQuotaExceeded,
		Message:   message,
		Remaining: &remaining,
	}

	if !resetTime.IsZero() {
		resp.ResetTime = resetTime.Format(time.RFC3339)
		c.Header("Retry-After", resetTime.UTC().Format(http.TimeFormat))
	}

	c.JSON(http.StatusTooManyRequests, resp)
}

// returns a 413 for a single call exceeding the per-call token ceiling
func RequestTooLarge(c *gin.Context, message string) {
	if message == "" {
		message = "request exceeds the maximum size for your plan"
	}

	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error:   CodeRequestTooLarge,
		Message: message,
	})
}

// returns a 429 for accounts at their concurrent request ceiling
func ConcurrencyExceeded(c *gin.Context) {
	c.Header("Retry-After", "5")
	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeConcurrencyExceeded,
		Message: "too many requests in flight, try again shortly",
	})
}

// returns a 503 when a gating dependency cannot be reached
func DependencyUnavailable(c *gin.Context, message string, err error) {
	if message == "" {
		message = "a required service is temporarily unavailable"
	}

	logger.ErrorErr(err, message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"account_id", c.GetString("account_id"),
	)

	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   CodeDependencyUnavailable,
		Message: message,
	})
}

// returns a 404 not found error
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"

	if resource != "" {
		message = resource + " not found"
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeNotFound,
		Message: message,
	})
}

// returns a 400 bad request error
func BadRequest(c *gin.Context, message string, err error) {
	if message == "" {
		message = "invalid request"
	}

	response := ErrorResponse{
		Error:   CodeBadRequest,
		Message: message,
	}

	// add details if error provided
	if err != nil {
		response.Details = classifyError(err).sanitized
	}

	c.JSON(http.StatusBadRequest, response)
}

// returns a 400 bad request error for validation failures
func ValidationError(c *gin.Context, err error) {
	message := "validation failed"
	details := ""

	if err != nil {
		details = classifyError(err).sanitized
		// extract a more specific message from validation errors if available
		if strings.Contains(err.Error(), "binding") || strings.Contains(err.Error(), "validation") {
			message = "request validation failed"
		}
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeValidationError,
		Message: message,
		Details: details,
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	// log full error server-side with context
	logger.ErrorErr(err, message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"account_id", c.GetString("account_id"),
	)

	// return sanitized error to client
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   CodeServerError,
		Message: message,
		Details: classifyError(err).sanitized,
	})
}

// returns a 409 conflict error
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "resource conflict"
	}

	c.JSON(http.StatusConflict, ErrorResponse{
		Error:   CodeConflict,
		Message: message,
	})
}
