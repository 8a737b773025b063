package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/analysis"
	"github.com/solrisk-service/solrisk_service/pkg/logger"
)

// TokenHandlers serves token analysis endpoints.
type TokenHandlers struct {
	service *analysis.TokenService
	logger  *logger.Logger
}

// NewTokenHandlers creates token analysis handlers.
func NewTokenHandlers(service *analysis.TokenService, log *logger.Logger) *TokenHandlers {
	return &TokenHandlers{
		service: service,
		logger:  log,
	}
}

// AnalyzeTokenRequest is the body of POST /api/v1/tokens/analyze.
type AnalyzeTokenRequest struct {
	TokenAddress string `json:"tokenAddress" binding:"required"`
	TopN         int    `json:"topN"`
}

// Analyze runs a full token analysis and persists the report. The narrative
// is attached in the background; the response returns immediately.
func (h *TokenHandlers) Analyze(c *gin.Context) {
	var req AnalyzeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "tokenAddress is required", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), req.TokenAddress, req.TopN)
	if err != nil {
		h.logger.WithError(err).Errorw("token analysis failed",
			"request_id", getRequestID(c),
			"token_address", req.TokenAddress,
		)
		respondInternalError(c, "Failed to analyze token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"reportId":        result.ReportID,
		"tokenAddress":    result.TokenAddress,
		"riskLevel":       result.RiskLevel,
		"riskScore":       result.RiskScore,
		"concentration":   result.Concentration,
		"recommendations": result.Recommendations,
		"timestamp":       result.Timestamp,
		"note":            "Narrative enrichment runs in the background and is attached to the stored report.",
	})
}

// Lookup computes an assessment on the fly without persisting it.
func (h *TokenHandlers) Lookup(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "token address is required", nil)
		return
	}

	topN := analysis.DefaultTopN
	if raw := c.Query("topN"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondBadRequest(c, "topN must be a positive integer", nil)
			return
		}
		topN = parsed
	}

	result, err := h.service.QuickLookup(c.Request.Context(), address, topN)
	if err != nil {
		h.logger.WithError(err).Errorw("token lookup failed",
			"request_id", getRequestID(c),
			"token_address", address,
		)
		respondInternalError(c, "Failed to look up token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
