package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// subscriptionHandler handles HTTP requests related to subscriptions and plans.
type subscriptionHandler struct {
	subscriptionService portssvc.SubscriptionSvcFacade
}

// registerSubscriptionRoutes registers subscription lifecycle and plan routes.
func registerSubscriptionRoutes(rg *gin.RouterGroup, subscriptionService portssvc.SubscriptionSvcFacade) {
	h := &subscriptionHandler{subscriptionService: subscriptionService}

	sub := rg.Group("/subscription")
	{
		sub.POST("", h.startSubscription)
		sub.GET("", h.getSubscription)
		sub.POST("/cancel", h.cancelSubscription)
		sub.GET("/plan", h.getPlan)
		sub.GET("/entitlements/:featureCode", h.checkEntitlement)
	}
}

// startSubscription godoc
// @Summary Start a subscription on a plan
// @Description Subscribes the tenant to a plan, opening a trial window when the plan has one; charges the first period otherwise.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param subscription body dto.StartSubscriptionRequest true "Plan selection"
// @Success 201 {object} dto.SubscriptionResponse
// @Failure 400 {object} map[string]string "Invalid input or unknown plan"
// @Failure 422 {object} map[string]string "First-period charge declined"
// @Security BearerAuth
// @Router /subscription [post]
func (h *subscriptionHandler) startSubscription(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.StartSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for startSubscription", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.StartSubscription(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondEngineError(c, err, "Failed to start subscription")
		return
	}
	c.JSON(http.StatusCreated, dto.ToSubscriptionResponse(sub))
}

// getSubscription godoc
// @Summary Get the tenant's subscription
// @Tags subscriptions
// @Produce json
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} map[string]string "No subscription"
// @Security BearerAuth
// @Router /subscription [get]
func (h *subscriptionHandler) getSubscription(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.GetSubscription(c.Request.Context(), tenantID)
	if err != nil {
		respondEngineError(c, err, "Failed to retrieve subscription")
		return
	}
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// cancelSubscription godoc
// @Summary Cancel the tenant's subscription
// @Description Allowed from any state except EXPIRED; access continues until the end of the paid period.
// @Tags subscriptions
// @Produce json
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 404 {object} map[string]string "No subscription"
// @Failure 422 {object} map[string]string "Subscription not cancellable"
// @Security BearerAuth
// @Router /subscription/cancel [post]
func (h *subscriptionHandler) cancelSubscription(c *gin.Context) {
	userID, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondEngineError(c, err, "Failed to cancel subscription")
		return
	}
	c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// getPlan godoc
// @Summary Get the plan the tenant is subscribed to
// @Tags subscriptions
// @Produce json
// @Success 200 {object} dto.PlanResponse
// @Failure 404 {object} map[string]string "No subscription or plan"
// @Security BearerAuth
// @Router /subscription/plan [get]
func (h *subscriptionHandler) getPlan(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	plan, err := h.subscriptionService.GetTenantPlan(c.Request.Context(), tenantID)
	if err != nil {
		respondEngineError(c, err, "Failed to retrieve plan")
		return
	}
	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}

// checkEntitlement godoc
// @Summary Check whether the tenant may use a feature
// @Tags subscriptions
// @Produce json
// @Param featureCode path string true "Feature code"
// @Success 200 {object} dto.EntitlementResponse
// @Security BearerAuth
// @Router /subscription/entitlements/{featureCode} [get]
func (h *subscriptionHandler) checkEntitlement(c *gin.Context) {
	_, tenantID, ok := requireIdentity(c)
	if !ok {
		return
	}

	entitlement, err := h.subscriptionService.CheckEntitlement(c.Request.Context(), tenantID, c.Param("featureCode"))
	if err != nil {
		respondEngineError(c, err, "Failed to check entitlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntitlementResponse(entitlement))
}
