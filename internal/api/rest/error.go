package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nemoralis/wlmaz/internal/logger"
)

// Error responses are flat: {"error": ...} for caller mistakes and
// {"error": ..., "details": ...} for upstream failures, where details carry
// the remote error verbatim for diagnosis.

// errorResponse is the standard failure body
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: message})
}

func respondUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, errorResponse{Error: message})
}

func respondForbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, errorResponse{Error: message})
}

// respondInternalError sends a 500 with the underlying error surfaced as
// details, and logs it
func respondInternalError(c *gin.Context, err error, message string) {
	logger.ErrorCtx(c.Request.Context(), err, zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   message,
		Details: err.Error(),
	})
}
