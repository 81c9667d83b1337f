package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
)

// NewRepositoryProvider builds all pgsql-backed repositories. The transaction
// repository receives the wallet, ledger and billing repositories so its
// engine commits can span all four tables in one database transaction.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	walletRepo := newPgxWalletRepository(pool)
	ledgerRepo := newPgxLedgerRepository(pool)
	billingRepo := newPgxBillingRepository(pool)
	transactionRepo := newPgxTransactionRepository(pool, walletRepo, ledgerRepo, billingRepo)
	subscriptionRepo := newPgxSubscriptionRepository(pool)
	currencyRepo := newPgxCurrencyRepository(pool)

	return portsrepo.RepositoryProvider{
		WalletRepo:       walletRepo,
		LedgerRepo:       ledgerRepo,
		TransactionRepo:  transactionRepo,
		BillingRepo:      billingRepo,
		SubscriptionRepo: subscriptionRepo,
		CurrencyRepo:     currencyRepo,
	}
}
