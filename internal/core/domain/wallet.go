package domain

import "github.com/shopspring/decimal"

// WalletStatus indicates whether a wallet may take part in transactions.
type WalletStatus string

const (
	WalletActive    WalletStatus = "ACTIVE"
	WalletSuspended WalletStatus = "SUSPENDED"
)

// Wallet is the per (owner, tenant, currency) balance projection.
// Balance is a cache of the signed sum of all committed ledger entries for
// the wallet's account code; Version backs the compare-and-swap update path.
// Wallets are created lazily on first use and never deleted, only deactivated.
type Wallet struct {
	WalletID     string          `json:"walletID"`     // Primary Key (UUID)
	OwnerUserID  string          `json:"ownerUserID"`  // Owning user
	TenantID     string          `json:"tenantID"`     // Owning tenant
	CurrencyCode string          `json:"currencyCode"` // ISO-4217, settlement currency
	Balance      decimal.Decimal `json:"balance"`
	Version      int64           `json:"version"` // Optimistic concurrency token
	Status       WalletStatus    `json:"status"`
	IsActive     bool            `json:"isActive"`
	AuditFields
}

// AccountCode returns the ledger account code backing this wallet.
// Wallet balances live on liability accounts: a credit increases the balance.
func (w Wallet) AccountCode() string {
	return WalletAccountCode(w.WalletID)
}

// WalletAccountCode builds the ledger account code for a wallet ID.
func WalletAccountCode(walletID string) string {
	return "WALLET:" + walletID
}
