package services

import (
	"time"

	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
)

// NewServiceContainer wires the service graph: currency first (wallets and
// billing validate against it), then billing (the engine consults it), the
// engine, and finally the subscription manager, which charges through the
// engine.
func NewServiceContainer(repos portsrepo.RepositoryProvider, gracePeriod time.Duration) *portssvc.ServiceContainer {
	currencySvc := NewCurrencyService(repos.CurrencyRepo)
	walletSvc := NewWalletService(repos.WalletRepo, currencySvc)
	ledgerSvc := NewLedgerService(repos.LedgerRepo, repos.WalletRepo)
	billingSvc := NewBillingService(repos.BillingRepo, currencySvc)
	engineSvc := NewEngineService(repos.TransactionRepo, repos.WalletRepo, repos.LedgerRepo, repos.BillingRepo, billingSvc)
	subscriptionSvc := NewSubscriptionService(repos.SubscriptionRepo, repos.WalletRepo, engineSvc, billingSvc, gracePeriod)

	return &portssvc.ServiceContainer{
		Wallet:       walletSvc,
		Ledger:       ledgerSvc,
		Engine:       engineSvc,
		Billing:      billingSvc,
		Subscription: subscriptionSvc,
		Currency:     currencySvc,
	}
}
