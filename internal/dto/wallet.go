package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
)

// CreateWalletRequest is the request body for creating (or lazily fetching)
// a wallet for the authenticated owner.
type CreateWalletRequest struct {
	CurrencyCode string `json:"currencyCode" binding:"required,currencycode"`
}

// WalletResponse defines the wallet data returned by the API.
type WalletResponse struct {
	WalletID     string          `json:"walletID"`
	OwnerUserID  string          `json:"ownerUserID"`
	TenantID     string          `json:"tenantID"`
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`
	Status       string          `json:"status"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// BalanceResponse is the slim balance view.
type BalanceResponse struct {
	WalletID     string          `json:"walletID"`
	Balance      decimal.Decimal `json:"balance"`
	CurrencyCode string          `json:"currencyCode"`
	Status       string          `json:"status"`
}

// ToWalletResponse maps a domain wallet to its response DTO.
func ToWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		WalletID:     w.WalletID,
		OwnerUserID:  w.OwnerUserID,
		TenantID:     w.TenantID,
		CurrencyCode: w.CurrencyCode,
		Balance:      w.Balance,
		Status:       string(w.Status),
		IsActive:     w.IsActive,
		CreatedAt:    w.CreatedAt,
	}
}

// ToBalanceResponse maps a domain wallet to the balance view.
func ToBalanceResponse(w *domain.Wallet) BalanceResponse {
	return BalanceResponse{
		WalletID:     w.WalletID,
		Balance:      w.Balance,
		CurrencyCode: w.CurrencyCode,
		Status:       string(w.Status),
	}
}
