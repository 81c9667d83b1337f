package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// transactionHandler handles HTTP requests driving the wallet transaction engine.
type transactionHandler struct {
	engine        portssvc.EngineSvcFacade
	ledgerService portssvc.LedgerSvcFacade
}

// singleWalletOp is the shared shape of topup, purchase, fee, reward and refund.
type singleWalletOp func(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error)

// registerTransactionRoutes registers engine operations and history routes.
func registerTransactionRoutes(rg *gin.RouterGroup, engine portssvc.EngineSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	h := &transactionHandler{engine: engine, ledgerService: ledgerService}

	wallets := rg.Group("/wallets/:walletID")
	{
		wallets.POST("/topup", h.execute("topup", engine.TopUp))
		wallets.POST("/purchase", h.execute("purchase", engine.Purchase))
		wallets.POST("/fee", h.execute("fee", engine.Fee))
		wallets.POST("/reward", h.execute("reward", engine.Reward))
		wallets.POST("/refund", h.execute("refund", engine.Refund))
		wallets.POST("/adjust", h.adjust)
		wallets.GET("/transactions", h.listTransactions)
	}

	rg.POST("/transfers", h.transfer)

	transactions := rg.Group("/transactions")
	{
		transactions.GET("/:transactionID", h.getTransaction)
		transactions.GET("/:transactionID/entries", h.getEntries)
		transactions.POST("/:transactionID/reverse", h.reverse)
	}
}

// execute godoc
// @Summary Execute a wallet operation (topup, purchase, fee, reward, refund)
// @Description Runs one engine operation against the wallet. The reference field is the idempotency key; replays with the same reference and payload return the recorded result.
// @Tags transactions
// @Accept json
// @Produce json
// @Param walletID path string true "Wallet ID"
// @Param transaction body dto.TransactionRequest true "Operation details"
// @Success 200 {object} dto.ExecutionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Reference reused with different payload"
// @Failure 422 {object} map[string]string "Business rule failure (recorded as FAILED)"
// @Failure 503 {object} map[string]string "Concurrent update retries exhausted, safe to retry"
// @Security BearerAuth
// @Router /wallets/{walletID}/topup [post]
func (h *transactionHandler) execute(opName string, op singleWalletOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())

		var req dto.TransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for wallet operation", slog.String("op", opName), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}

		userID, tenantID, ok := requireIdentity(c)
		if !ok {
			return
		}

		result, err := op(c.Request.Context(), tenantID, c.Param("walletID"), req, userID)
		if err != nil {
			respondEngineError(c, err, "Failed to execute "+opName)
			return
		}

		c.JSON(http.StatusOK, toExecutionResponse(result))
	}
}

// adjust godoc
// @Summary Apply a manual balance adjustment
// @Tags transactions
// @Accept json
// @Produce json
// @Param walletID path string true "Wallet ID"
// @Param adjustment body dto.AdjustmentRequest true "Adjustment details"
// @Success 200 {object} dto.ExecutionResponse
// @Failure 422 {object} map[string]string "Business rule failure"
// @Security BearerAuth
// @Router /wallets/{walletID}/adjust [post]
func (h *transactionHandler) adjust(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for adjustment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.engine.Adjust(c.Request.Context(), tenantID, c.Param("walletID"), req, userID)
	if err != nil {
		respondEngineError(c, err, "Failed to apply adjustment")
		return
	}
	c.JSON(http.StatusOK, toExecutionResponse(result))
}

// transfer godoc
// @Summary Transfer between two wallets
// @Description Moves funds between two same-currency wallets in one atomic four-entry ledger batch.
// @Tags transactions
// @Accept json
// @Produce json
// @Param transfer body dto.TransferRequest true "Transfer details"
// @Success 200 {object} dto.ExecutionResponse
// @Failure 422 {object} map[string]string "Business rule failure"
// @Security BearerAuth
// @Router /transfers [post]
func (h *transactionHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.engine.Transfer(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondEngineError(c, err, "Failed to execute transfer")
		return
	}
	c.JSON(http.StatusOK, toExecutionResponse(result))
}

// reverse godoc
// @Summary Reverse a completed transaction
// @Description Creates a compensating transaction mirroring the original batch and marks the original REVERSED.
// @Tags transactions
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} dto.ExecutionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Transaction not reversible"
// @Security BearerAuth
// @Router /transactions/{transactionID}/reverse [post]
func (h *transactionHandler) reverse(c *gin.Context) {
	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	result, err := h.engine.Reverse(c.Request.Context(), tenantID, c.Param("transactionID"), userID)
	if err != nil {
		respondEngineError(c, err, "Failed to reverse transaction")
		return
	}
	c.JSON(http.StatusOK, toExecutionResponse(result))
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Tags transactions
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Security BearerAuth
// @Router /transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	txn, err := h.engine.GetTransaction(c.Request.Context(), tenantID, c.Param("transactionID"))
	if err != nil {
		respondEngineError(c, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// getEntries godoc
// @Summary Get the ledger entries a transaction produced
// @Tags transactions
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {array} dto.LedgerEntryResponse
// @Failure 404 {object} map[string]string "No entries found"
// @Security BearerAuth
// @Router /transactions/{transactionID}/entries [get]
func (h *transactionHandler) getEntries(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	// Tenant scoping happens through the transaction lookup.
	if _, err := h.engine.GetTransaction(c.Request.Context(), tenantID, c.Param("transactionID")); err != nil {
		respondEngineError(c, err, "Failed to retrieve transaction")
		return
	}

	entries, err := h.ledgerService.GetEntriesByTransactionID(c.Request.Context(), c.Param("transactionID"))
	if err != nil {
		respondEngineError(c, err, "Failed to retrieve ledger entries")
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerEntryResponses(entries))
}

// listTransactions godoc
// @Summary List a wallet's transaction history
// @Tags transactions
// @Produce json
// @Param walletID path string true "Wallet ID"
// @Param limit query int false "Page size (default 20)"
// @Param nextToken query string false "Opaque pagination cursor"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 404 {object} map[string]string "Wallet not found"
// @Security BearerAuth
// @Router /wallets/{walletID}/transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for listTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.engine.ListTransactions(c.Request.Context(), tenantID, c.Param("walletID"), params)
	if err != nil {
		respondEngineError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func toExecutionResponse(result *portssvc.ExecutionResult) dto.ExecutionResponse {
	return dto.ExecutionResponse{
		Transaction: dto.ToTransactionResponse(&result.Transaction),
		Wallet:      dto.ToWalletResponse(&result.Wallet),
	}
}
