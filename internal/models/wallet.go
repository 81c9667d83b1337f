package models

import "github.com/shopspring/decimal"

// WalletStatus indicates whether a wallet may take part in transactions.
type WalletStatus string

// Wallet represents a row in the wallets table. Balance is the cached
// projection of the wallet's ledger account; version backs the
// compare-and-swap update path.
type Wallet struct {
	WalletID     string          `db:"wallet_id"`
	OwnerUserID  string          `db:"owner_user_id"`
	TenantID     string          `db:"tenant_id"`
	CurrencyCode string          `db:"currency_code"`
	Balance      decimal.Decimal `db:"balance"`
	Version      int64           `db:"version"`
	Status       WalletStatus    `db:"status"`
	IsActive     bool            `db:"is_active"`
	AuditFields
}
