package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/services"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// respondEngineError maps service errors onto the HTTP taxonomy:
// 400 validation, 404 not found, 409 reference reuse with a different
// payload, 422 recorded business failures, 503 retry-safe concurrency
// exhaustion, 500 everything else.
func respondEngineError(c *gin.Context, err error, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrDuplicateReference):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyReversed),
		errors.Is(err, services.ErrInvalidStateTransition),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrCreditLimitExceeded),
		errors.Is(err, services.ErrCurrencyMismatch),
		errors.Is(err, services.ErrWalletInactive),
		errors.Is(err, apperrors.ErrSuspended):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConcurrencyExhausted):
		// Safe to retry with the same idempotency reference.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}

// requireIdentity pulls the authenticated user and tenant from the request
// context, aborting with 401 when either is missing.
func requireIdentity(c *gin.Context) (userID, tenantID string, ok bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok = middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	tenantID, ok = middleware.GetTenantIDFromContext(c)
	if !ok {
		logger.Error("Tenant ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return userID, tenantID, true
}
