// Package httpkit holds the shared HTTP response helpers and middleware
// used by every module's handlers.
package httpkit

import (
	"errors"
	"net/http"

	"advenrent_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the wire shape of every error the API returns. The
// client SDK depends on the "error" field name.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// JSON writes payload with an explicit status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes payload with 200.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Error writes an ErrorResponse with the given status.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// HandleError renders a service-layer error, translating *apperr.Error
// kinds to status codes. Anything untyped falls back to 400 so internals
// never leak a 500 body by accident. Returns true when err was non-nil
// and a response has been written.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   domainErr.Message,
			Details: domainErr.Details,
		})
		return true
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	return true
}
