package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// billingHandler handles HTTP requests related to billing accounts.
type billingHandler struct {
	billingService portssvc.BillingSvcFacade
}

// registerBillingRoutes registers billing account and credit evaluation routes.
func registerBillingRoutes(rg *gin.RouterGroup, billingService portssvc.BillingSvcFacade) {
	h := &billingHandler{billingService: billingService}

	billing := rg.Group("/billing")
	{
		billing.POST("/account", h.createAccount)
		billing.GET("/account", h.getAccount)
		billing.POST("/evaluate", h.evaluate)
		billing.POST("/payments", h.recordPayment)
	}
}

// createAccount godoc
// @Summary Provision the tenant's billing account
// @Description Creates the billing terms for the authenticated tenant; idempotent per tenant.
// @Tags billing
// @Accept json
// @Produce json
// @Param account body dto.CreateBillingAccountRequest true "Billing terms"
// @Success 201 {object} dto.BillingAccountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /billing/account [post]
func (h *billingHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateBillingAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createBillingAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	account, err := h.billingService.GetOrCreateBillingAccount(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondEngineError(c, err, "Failed to create billing account")
		return
	}
	c.JSON(http.StatusCreated, dto.ToBillingAccountResponse(account))
}

// getAccount godoc
// @Summary Get the tenant's billing account
// @Tags billing
// @Produce json
// @Success 200 {object} dto.BillingAccountResponse
// @Failure 404 {object} map[string]string "No billing account"
// @Security BearerAuth
// @Router /billing/account [get]
func (h *billingHandler) getAccount(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	account, err := h.billingService.GetBillingAccount(c.Request.Context(), tenantID)
	if err != nil {
		respondEngineError(c, err, "Failed to retrieve billing account")
		return
	}
	c.JSON(http.StatusOK, dto.ToBillingAccountResponse(account))
}

// evaluate godoc
// @Summary Re-evaluate the tenant's credit state
// @Description Suspends the account when over its credit limit, reactivates when back under.
// @Tags billing
// @Produce json
// @Success 200 {object} dto.BillingAccountResponse
// @Failure 404 {object} map[string]string "No billing account"
// @Security BearerAuth
// @Router /billing/evaluate [post]
func (h *billingHandler) evaluate(c *gin.Context) {
	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	account, err := h.billingService.EvaluateCredit(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondEngineError(c, err, "Failed to evaluate credit")
		return
	}
	c.JSON(http.StatusOK, dto.ToBillingAccountResponse(account))
}

// recordPayment godoc
// @Summary Record a successful external payment
// @Description Applies a charge captured by the external payment provider, reducing the outstanding balance.
// @Tags billing
// @Accept json
// @Produce json
// @Param payment body dto.ExternalPaymentRequest true "Payment details"
// @Success 200 {object} dto.BillingAccountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "No billing account"
// @Security BearerAuth
// @Router /billing/payments [post]
func (h *billingHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ExternalPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for recordPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	account, err := h.billingService.RecordExternalPayment(c.Request.Context(), tenantID, req.Amount, req.ExternalReference, userID)
	if err != nil {
		respondEngineError(c, err, "Failed to record payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToBillingAccountResponse(account))
}
