package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solrisk-service/solrisk_service/internal/domain/entities"
)

// getRequestID extracts the request ID set by the RequestID middleware.
func getRequestID(c *gin.Context) string {
	if reqID, exists := c.Get("request_id"); exists {
		if id, ok := reqID.(string); ok {
			return id
		}
	}
	return ""
}

// respondError sends a standardized error body with the request ID
// attached so failures can be matched against server logs.
func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, entities.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: getRequestID(c),
		Details:   details,
	})
}

func respondBadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", message, details)
}

func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func respondNotFound(c *gin.Context, message string) {
	respondError(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}
