package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// walletHandler handles HTTP requests related to wallets.
type walletHandler struct {
	walletService portssvc.WalletSvcFacade
	ledgerService portssvc.LedgerSvcFacade
}

// registerWalletRoutes registers wallet lifecycle and balance routes.
func registerWalletRoutes(rg *gin.RouterGroup, walletService portssvc.WalletSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	h := &walletHandler{walletService: walletService, ledgerService: ledgerService}

	wallets := rg.Group("/wallets")
	{
		wallets.POST("", h.createWallet)
		wallets.GET("/:walletID", h.getWallet)
		wallets.GET("/:walletID/balance", h.getBalance)
		wallets.GET("/:walletID/reconcile", h.reconcileWallet)
		wallets.POST("/:walletID/suspend", h.suspendWallet)
		wallets.POST("/:walletID/activate", h.activateWallet)
	}
}

// createWallet godoc
// @Summary Create (or fetch) the caller's wallet
// @Description Lazily creates the wallet for the authenticated owner, tenant and currency; idempotent on that key
// @Tags wallets
// @Accept json
// @Produce json
// @Param wallet body dto.CreateWalletRequest true "Wallet details"
// @Success 201 {object} dto.WalletResponse
// @Failure 400 {object} map[string]string "Invalid input or unsupported currency"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /wallets [post]
func (h *walletHandler) createWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createWallet", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	wallet, err := h.walletService.GetOrCreateWallet(c.Request.Context(), userID, tenantID, req.CurrencyCode, userID)
	if err != nil {
		respondEngineError(c, err, "Failed to create wallet")
		return
	}

	logger.Info("Wallet ready", slog.String("wallet_id", wallet.WalletID))
	c.JSON(http.StatusCreated, dto.ToWalletResponse(wallet))
}

// getWallet godoc
// @Summary Get a wallet by ID
// @Tags wallets
// @Produce json
// @Param walletID path string true "Wallet ID"
// @Success 200 {object} dto.WalletResponse
// @Failure 404 {object} map[string]string "Wallet not found"
// @Security BearerAuth
// @Router /wallets/{walletID} [get]
func (h *walletHandler) getWallet(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	wallet, err := h.walletService.GetWallet(c.Request.Context(), tenantID, c.Param("walletID"))
	if err != nil {
		respondEngineError(c, err, "Failed to retrieve wallet")
		return
	}
	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// getBalance godoc
// @Summary Get a wallet's balance
// @Tags wallets
// @Produce json
// @Param walletID path string true "Wallet ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} map[string]string "Wallet not found"
// @Security BearerAuth
// @Router /wallets/{walletID}/balance [get]
func (h *walletHandler) getBalance(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	balance, err := h.walletService.GetBalance(c.Request.Context(), tenantID, c.Param("walletID"))
	if err != nil {
		respondEngineError(c, err, "Failed to retrieve balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

// reconcileWallet godoc
// @Summary Reconcile a wallet balance against the journal
// @Description Recomputes the balance purely from ledger entries and reports any drift from the cached projection
// @Tags wallets
// @Produce json
// @Param walletID path string true "Wallet ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 404 {object} map[string]string "Wallet not found"
// @Security BearerAuth
// @Router /wallets/{walletID}/reconcile [get]
func (h *walletHandler) reconcileWallet(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.ledgerService.ReconcileWallet(c.Request.Context(), tenantID, c.Param("walletID"))
	if err != nil {
		respondEngineError(c, err, "Failed to reconcile wallet")
		return
	}
	c.JSON(http.StatusOK, result)
}

// suspendWallet godoc
// @Summary Suspend a wallet
// @Tags wallets
// @Produce json
// @Param walletID path string true "Wallet ID"
// @Success 204
// @Failure 404 {object} map[string]string "Wallet not found"
// @Security BearerAuth
// @Router /wallets/{walletID}/suspend [post]
func (h *walletHandler) suspendWallet(c *gin.Context) {
	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := h.walletService.SuspendWallet(c.Request.Context(), tenantID, c.Param("walletID"), userID); err != nil {
		respondEngineError(c, err, "Failed to suspend wallet")
		return
	}
	c.Status(http.StatusNoContent)
}

// activateWallet godoc
// @Summary Activate a suspended wallet
// @Tags wallets
// @Produce json
// @Param walletID path string true "Wallet ID"
// @Success 204
// @Failure 404 {object} map[string]string "Wallet not found"
// @Security BearerAuth
// @Router /wallets/{walletID}/activate [post]
func (h *walletHandler) activateWallet(c *gin.Context) {
	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	if err := h.walletService.ActivateWallet(c.Request.Context(), tenantID, c.Param("walletID"), userID); err != nil {
		respondEngineError(c, err, "Failed to activate wallet")
		return
	}
	c.Status(http.StatusNoContent)
}
