package services

// ServiceContainer holds all service facades handed to the transport layer.
type ServiceContainer struct {
	Wallet       WalletSvcFacade
	Ledger       LedgerSvcFacade
	Engine       EngineSvcFacade
	Billing      BillingSvcFacade
	Subscription SubscriptionSvcFacade
	Currency     CurrencySvcFacade
}
