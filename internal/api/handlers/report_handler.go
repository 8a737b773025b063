package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/solrisk-service/solrisk_service/internal/domain/services/analysis"
	"github.com/solrisk-service/solrisk_service/internal/infrastructure/repositories"
	"github.com/solrisk-service/solrisk_service/pkg/logger"
)

// ReportHandlers serves persisted report retrieval.
type ReportHandlers struct {
	tokens  *analysis.TokenService
	wallets *analysis.WalletService
	logger  *logger.Logger
}

// NewReportHandlers creates report retrieval handlers.
func NewReportHandlers(tokens *analysis.TokenService, wallets *analysis.WalletService, log *logger.Logger) *ReportHandlers {
	return &ReportHandlers{
		tokens:  tokens,
		wallets: wallets,
		logger:  log,
	}
}

// Get fetches a persisted report by ID. Report IDs are unique across both
// report kinds, so the token table is tried first and the wallet table
// second.
func (h *ReportHandlers) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "report id must be a valid UUID", nil)
		return
	}

	tokenReport, err := h.tokens.GetReport(c.Request.Context(), id)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"kind":    "token",
			"report":  tokenReport,
		})
		return
	}
	if !errors.Is(err, repositories.ErrReportNotFound) {
		h.logger.WithError(err).Errorw("failed to fetch token report",
			"request_id", getRequestID(c),
			"report_id", id.String(),
		)
		respondInternalError(c, "Failed to fetch report")
		return
	}

	walletReport, err := h.wallets.GetReport(c.Request.Context(), id)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"kind":    "wallet",
			"report":  walletReport,
		})
		return
	}
	if !errors.Is(err, repositories.ErrReportNotFound) {
		h.logger.WithError(err).Errorw("failed to fetch wallet report",
			"request_id", getRequestID(c),
			"report_id", id.String(),
		)
		respondInternalError(c, "Failed to fetch report")
		return
	}

	respondNotFound(c, "No report found with that id")
}
