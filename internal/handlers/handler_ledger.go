package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// ledgerHandler handles HTTP requests over the append-only journal.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// registerLedgerRoutes registers journal query routes.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &ledgerHandler{ledgerService: ledgerService}

	ledger := rg.Group("/ledger")
	{
		ledger.GET("/accounts/:accountCode/entries", h.listEntries)
	}
}

// listEntries godoc
// @Summary List journal entries for an account code
// @Description Token-paginated journal slice for one account code within an optional date range, newest first.
// @Tags ledger
// @Produce json
// @Param accountCode path string true "Ledger account code"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param limit query int false "Page size (default 50)"
// @Param nextToken query string false "Opaque pagination cursor"
// @Success 200 {object} dto.ListLedgerEntriesResponse
// @Security BearerAuth
// @Router /ledger/accounts/{accountCode}/entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListLedgerEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for listEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListEntriesByAccountCode(c.Request.Context(), c.Param("accountCode"), params)
	if err != nil {
		respondEngineError(c, err, "Failed to list ledger entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}
