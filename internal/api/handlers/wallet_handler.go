package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/analysis"
	"github.com/solrisk-service/solrisk_service/pkg/logger"
)

// WalletHandlers serves wallet analysis endpoints.
type WalletHandlers struct {
	service *analysis.WalletService
	logger  *logger.Logger
}

// NewWalletHandlers creates wallet analysis handlers.
func NewWalletHandlers(service *analysis.WalletService, log *logger.Logger) *WalletHandlers {
	return &WalletHandlers{
		service: service,
		logger:  log,
	}
}

// AnalyzeWalletRequest is the body of POST /api/v1/wallets/analyze.
type AnalyzeWalletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// Analyze runs a full wallet analysis and persists the report.
func (h *WalletHandlers) Analyze(c *gin.Context) {
	var req AnalyzeWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "walletAddress is required", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), req.WalletAddress)
	if err != nil {
		h.logger.WithError(err).Errorw("wallet analysis failed",
			"request_id", getRequestID(c),
			"wallet_address", req.WalletAddress,
		)
		respondInternalError(c, "Failed to analyze wallet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"reportId":        result.ReportID,
		"walletAddress":   result.WalletAddress,
		"riskLevel":       result.RiskLevel,
		"riskScore":       result.RiskScore,
		"totalValueUsd":   result.TotalValueUSD,
		"tokenCount":      result.TokenCount,
		"nftCount":        result.NFTCount,
		"diversification": result.Diversification,
		"recommendations": result.Recommendations,
		"timestamp":       result.Timestamp,
		"note":            "Narrative enrichment runs in the background and is attached to the stored report.",
	})
}

// Lookup computes a wallet assessment on the fly without persisting it.
func (h *WalletHandlers) Lookup(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "wallet address is required", nil)
		return
	}

	result, err := h.service.QuickLookup(c.Request.Context(), address)
	if err != nil {
		h.logger.WithError(err).Errorw("wallet lookup failed",
			"request_id", getRequestID(c),
			"wallet_address", address,
		)
		respondInternalError(c, "Failed to look up wallet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
