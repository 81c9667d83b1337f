package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
)

// --- Mock WalletRepository ---

type MockWalletRepository struct {
	mock.Mock
}

var _ portsrepo.WalletRepositoryFacade = (*MockWalletRepository)(nil)

func (m *MockWalletRepository) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindWalletByOwner(ctx context.Context, ownerUserID, tenantID, currencyCode string) (*domain.Wallet, error) {
	args := m.Called(ctx, ownerUserID, tenantID, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ListWalletsByTenant(ctx context.Context, tenantID string) ([]domain.Wallet, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) CreateWalletIdempotent(ctx context.Context, wallet domain.Wallet) (*domain.Wallet, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) SetWalletStatus(ctx context.Context, walletID string, status domain.WalletStatus, userID string, now time.Time) error {
	args := m.Called(ctx, walletID, status, userID, now)
	return args.Error(0)
}

func (m *MockWalletRepository) DeactivateWallet(ctx context.Context, walletID string, userID string, now time.Time) error {
	args := m.Called(ctx, walletID, userID, now)
	return args.Error(0)
}

func (m *MockWalletRepository) ApplyDeltaInTx(ctx context.Context, tx pgx.Tx, walletID string, delta decimal.Decimal, expectedVersion int64, userID string, now time.Time) (*domain.Wallet, error) {
	args := m.Called(ctx, tx, walletID, delta, expectedVersion, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

// --- Mock TransactionRepository ---

type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByReference(ctx context.Context, reference string) (*domain.WalletTransaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByWalletID(ctx context.Context, walletID string, limit int, nextToken *string) ([]domain.WalletTransaction, *string, error) {
	args := m.Called(ctx, walletID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.WalletTransaction), returnedNextToken, args.Error(2)
}

func (m *MockTransactionRepository) CreatePending(ctx context.Context, txn domain.WalletTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkFailed(ctx context.Context, transactionID, reason, userID string, now time.Time) error {
	args := m.Called(ctx, transactionID, reason, userID, now)
	return args.Error(0)
}

func (m *MockTransactionRepository) CommitExecution(ctx context.Context, commit portsrepo.EngineCommit) error {
	args := m.Called(ctx, commit)
	return args.Error(0)
}

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindEntriesByBatchReference(ctx context.Context, batchReference string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, batchReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListEntriesByAccountCode(ctx context.Context, accountCode string, from, to *time.Time, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, accountCode, from, to, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.LedgerEntry), returnedNextToken, args.Error(2)
}

func (m *MockLedgerRepository) SumsByAccountCode(ctx context.Context, accountCode string) (*domain.AccountSums, error) {
	args := m.Called(ctx, accountCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountSums), args.Error(1)
}

func (m *MockLedgerRepository) InsertEntriesInTx(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	args := m.Called(ctx, tx, entries)
	return args.Error(0)
}

func (m *MockLedgerRepository) LockSystemAccountsInTx(ctx context.Context, tx pgx.Tx, accounts map[string]domain.AccountType, currencyCode string) (map[string]domain.LedgerAccount, error) {
	args := m.Called(ctx, tx, accounts, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.LedgerAccount), args.Error(1)
}

func (m *MockLedgerRepository) UpdateSystemAccountBalancesInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, deltas, userID, now)
	return args.Error(0)
}

// --- Mock BillingRepository ---

type MockBillingRepository struct {
	mock.Mock
}

var _ portsrepo.BillingRepositoryFacade = (*MockBillingRepository)(nil)

func (m *MockBillingRepository) FindBillingAccountByTenantID(ctx context.Context, tenantID string) (*domain.BillingAccount, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockBillingRepository) ListAccountsOverLimit(ctx context.Context, limit int) ([]domain.BillingAccount, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BillingAccount), args.Error(1)
}

func (m *MockBillingRepository) CreateBillingAccountIdempotent(ctx context.Context, account domain.BillingAccount) (*domain.BillingAccount, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockBillingRepository) SuspendBillingAccount(ctx context.Context, tenantID, reason, userID string, now time.Time) error {
	args := m.Called(ctx, tenantID, reason, userID, now)
	return args.Error(0)
}

func (m *MockBillingRepository) ReactivateBillingAccount(ctx context.Context, tenantID, userID string, now time.Time) error {
	args := m.Called(ctx, tenantID, userID, now)
	return args.Error(0)
}

func (m *MockBillingRepository) ApplyBillingDelta(ctx context.Context, tenantID string, delta decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tenantID, delta, userID, now)
	return args.Error(0)
}

func (m *MockBillingRepository) FindBillingAccountForShareInTx(ctx context.Context, tx pgx.Tx, tenantID string) (*domain.BillingAccount, error) {
	args := m.Called(ctx, tx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockBillingRepository) ApplyBillingDeltaInTx(ctx context.Context, tx pgx.Tx, tenantID string, delta decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, tenantID, delta, userID, now)
	return args.Error(0)
}

// --- Mock SubscriptionRepository ---

type MockSubscriptionRepository struct {
	mock.Mock
}

var _ portsrepo.SubscriptionRepositoryFacade = (*MockSubscriptionRepository)(nil)

func (m *MockSubscriptionRepository) FindSubscriptionByTenantID(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListTrialsEndingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListRenewalsDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListPastDueSince(ctx context.Context, cutoff time.Time, limit int) ([]domain.Subscription, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) CreateSubscriptionIdempotent(ctx context.Context, sub domain.Subscription) (*domain.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) UpdateSubscription(ctx context.Context, sub domain.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) FindPlanByCode(ctx context.Context, planCode string) (*domain.Plan, error) {
	args := m.Called(ctx, planCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Plan), args.Error(1)
}

func (m *MockSubscriptionRepository) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Plan), args.Error(1)
}

// --- Mock CurrencyRepository ---

type MockCurrencyRepository struct {
	mock.Mock
}

var _ portsrepo.CurrencyRepositoryFacade = (*MockCurrencyRepository)(nil)

func (m *MockCurrencyRepository) FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	args := m.Called(ctx, currency)
	return args.Error(0)
}

// --- Mock CurrencyService ---

type MockCurrencyService struct {
	mock.Mock
}

var _ portssvc.CurrencySvcFacade = (*MockCurrencyService)(nil)

func (m *MockCurrencyService) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, userID string) (*domain.Currency, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyService) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

// --- Mock BillingService ---

type MockBillingService struct {
	mock.Mock
}

var _ portssvc.BillingSvcFacade = (*MockBillingService)(nil)

func (m *MockBillingService) GetOrCreateBillingAccount(ctx context.Context, tenantID string, req dto.CreateBillingAccountRequest, userID string) (*domain.BillingAccount, error) {
	args := m.Called(ctx, tenantID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockBillingService) GetBillingAccount(ctx context.Context, tenantID string) (*domain.BillingAccount, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockBillingService) EvaluateCredit(ctx context.Context, tenantID, userID string) (*domain.BillingAccount, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockBillingService) EvaluateAllOverLimit(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockBillingService) RecordExternalPayment(ctx context.Context, tenantID string, amount decimal.Decimal, externalReference, userID string) (*domain.BillingAccount, error) {
	args := m.Called(ctx, tenantID, amount, externalReference, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockBillingService) SuspendTenant(ctx context.Context, tenantID, reason, userID string, now time.Time) error {
	args := m.Called(ctx, tenantID, reason, userID, now)
	return args.Error(0)
}

// --- Mock EngineService ---

type MockEngineService struct {
	mock.Mock
}

var _ portssvc.EngineSvcFacade = (*MockEngineService)(nil)

func (m *MockEngineService) executionResult(args mock.Arguments) (*portssvc.ExecutionResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.ExecutionResult), args.Error(1)
}

func (m *MockEngineService) TopUp(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return m.executionResult(m.Called(ctx, tenantID, walletID, req, userID))
}

func (m *MockEngineService) Purchase(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return m.executionResult(m.Called(ctx, tenantID, walletID, req, userID))
}

func (m *MockEngineService) Fee(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return m.executionResult(m.Called(ctx, tenantID, walletID, req, userID))
}

func (m *MockEngineService) Reward(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return m.executionResult(m.Called(ctx, tenantID, walletID, req, userID))
}

func (m *MockEngineService) Refund(ctx context.Context, tenantID, walletID string, req dto.TransactionRequest, userID string) (*portssvc.ExecutionResult, error) {
	return m.executionResult(m.Called(ctx, tenantID, walletID, req, userID))
}

func (m *MockEngineService) Adjust(ctx context.Context, tenantID, walletID string, req dto.AdjustmentRequest, userID string) (*portssvc.ExecutionResult, error) {
	return m.executionResult(m.Called(ctx, tenantID, walletID, req, userID))
}

func (m *MockEngineService) Transfer(ctx context.Context, tenantID string, req dto.TransferRequest, userID string) (*portssvc.ExecutionResult, error) {
	return m.executionResult(m.Called(ctx, tenantID, req, userID))
}

func (m *MockEngineService) Reverse(ctx context.Context, tenantID, transactionID, userID string) (*portssvc.ExecutionResult, error) {
	return m.executionResult(m.Called(ctx, tenantID, transactionID, userID))
}

func (m *MockEngineService) GetTransaction(ctx context.Context, tenantID, transactionID string) (*domain.WalletTransaction, error) {
	args := m.Called(ctx, tenantID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockEngineService) ListTransactions(ctx context.Context, tenantID, walletID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, tenantID, walletID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}
