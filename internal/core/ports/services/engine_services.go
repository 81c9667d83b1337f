package services

import (
	"context"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	"github.com/nexabot/wallet_billing_core/internal/dto"
)

// ExecutionResult is what a successful engine run hands back: the recorded
// transaction and the wallet as it stands after the commit.
type ExecutionResult struct {
	Transaction domain.WalletTransaction
	Wallet      domain.Wallet
}

// EngineSvcFacade is the wallet transaction engine: the only writer allowed
// to mutate ledger, wallet and transaction state together. Every operation
// takes an idempotency reference and resolves to COMPLETED, FAILED or a
// typed error within a bounded number of attempts.
type EngineSvcFacade interface {
	TopUp(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*ExecutionResult, error)
	Purchase(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*ExecutionResult, error)
	Fee(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*ExecutionResult, error)
	Reward(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*ExecutionResult, error)
	Refund(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*ExecutionResult, error)
	Adjust(ctx context.Context, tenantID, walletID string, req dto.AdjustmentRequest, userID string) (*ExecutionResult, error)

	// Transfer moves funds between two wallets of the same currency in one
	// four-entry batch spanning both wallets atomically.
	Transfer(ctx context.Context, tenantID string, req dto.TransferRequest, userID string) (*ExecutionResult, error)

	// Reverse creates a compensating transaction mirroring a COMPLETED one
	// and marks the original REVERSED.
	Reverse(ctx context.Context, tenantID, transactionID, userID string) (*ExecutionResult, error)

	// GetTransaction retrieves a single transaction, tenant-scoped.
	GetTransaction(ctx context.Context, tenantID, transactionID string) (*domain.WalletTransaction, error)

	// ListTransactions retrieves a wallet's token-paginated history.
	ListTransactions(ctx context.Context, tenantID, walletID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}
