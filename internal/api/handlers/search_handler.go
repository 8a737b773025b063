package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/analysis"
	"github.com/solrisk-service/solrisk_service/pkg/logger"
)

// SearchHandlers serves the token search endpoint.
type SearchHandlers struct {
	service *analysis.TokenService
	logger  *logger.Logger
}

// NewSearchHandlers creates search handlers.
func NewSearchHandlers(service *analysis.TokenService, log *logger.Logger) *SearchHandlers {
	return &SearchHandlers{
		service: service,
		logger:  log,
	}
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// Search finds token pairs by symbol, name or address.
func (h *SearchHandlers) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "query is required", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	results, err := h.service.Search(c.Request.Context(), req.Query)
	if err != nil {
		h.logger.WithError(err).Errorw("token search failed",
			"request_id", getRequestID(c),
			"query", req.Query,
		)
		respondInternalError(c, "Search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"query":   req.Query,
		"count":   len(results),
		"results": results,
	})
}
