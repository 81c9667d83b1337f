package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/core/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
)

type BillingServiceTestSuite struct {
	suite.Suite
	mockBillingRepo *MockBillingRepository
	mockCurrencySvc *MockCurrencyService
	service         portssvc.BillingSvcFacade
	tenantID        string
	userID          string
	usd             domain.Currency
}

func (suite *BillingServiceTestSuite) SetupTest() {
	suite.mockBillingRepo = new(MockBillingRepository)
	suite.mockCurrencySvc = new(MockCurrencyService)
	suite.service = services.NewBillingService(suite.mockBillingRepo, suite.mockCurrencySvc)

	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.usd = domain.Currency{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2}
}

func (suite *BillingServiceTestSuite) TestGetOrCreate_CreatesPostpaidWithLimit() {
	ctx := context.Background()
	limit := decimal.NewFromInt(500)
	req := dto.CreateBillingAccountRequest{BillingType: "POSTPAID", CurrencyCode: "USD", CreditLimit: &limit}

	suite.mockCurrencySvc.On("GetCurrency", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockBillingRepo.On("FindBillingAccountByTenantID", ctx, suite.tenantID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockBillingRepo.On("CreateBillingAccountIdempotent", ctx, mock.AnythingOfType("domain.BillingAccount")).
		Return(&domain.BillingAccount{
			BillingAccountID: uuid.NewString(),
			TenantID:         suite.tenantID,
			BillingType:      domain.BillingPostpaid,
			CurrencyCode:     "USD",
			CreditLimit:      &limit,
			IsActive:         true,
		}, nil).Once()

	account, err := suite.service.GetOrCreateBillingAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.BillingPostpaid, account.BillingType)
	suite.Require().NotNil(account.CreditLimit)
	suite.True(account.CreditLimit.Equal(limit))
	suite.mockBillingRepo.AssertExpectations(suite.T())
}

func (suite *BillingServiceTestSuite) TestGetOrCreate_ReturnsExisting() {
	ctx := context.Background()
	existing := domain.BillingAccount{
		BillingAccountID: uuid.NewString(),
		TenantID:         suite.tenantID,
		BillingType:      domain.BillingPrepaid,
		CurrencyCode:     "USD",
		IsActive:         true,
	}
	req := dto.CreateBillingAccountRequest{BillingType: "PREPAID", CurrencyCode: "USD"}

	suite.mockCurrencySvc.On("GetCurrency", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockBillingRepo.On("FindBillingAccountByTenantID", ctx, suite.tenantID).Return(&existing, nil).Once()

	account, err := suite.service.GetOrCreateBillingAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(existing.BillingAccountID, account.BillingAccountID)
	suite.mockBillingRepo.AssertNotCalled(suite.T(), "CreateBillingAccountIdempotent", mock.Anything, mock.Anything)
}

func (suite *BillingServiceTestSuite) TestGetOrCreate_CreditLimitOnPrepaidRejected() {
	ctx := context.Background()
	limit := decimal.NewFromInt(100)
	req := dto.CreateBillingAccountRequest{BillingType: "PREPAID", CurrencyCode: "USD", CreditLimit: &limit}

	suite.mockCurrencySvc.On("GetCurrency", ctx, "USD").Return(&suite.usd, nil).Once()

	_, err := suite.service.GetOrCreateBillingAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BillingServiceTestSuite) TestGetOrCreate_UnsupportedCurrencyRejected() {
	ctx := context.Background()
	req := dto.CreateBillingAccountRequest{BillingType: "PREPAID", CurrencyCode: "XXX"}

	suite.mockCurrencySvc.On("GetCurrency", ctx, "XXX").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetOrCreateBillingAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BillingServiceTestSuite) TestEvaluateCredit_SuspendsOverLimit() {
	ctx := context.Background()
	limit := decimal.NewFromInt(100)
	over := domain.BillingAccount{
		TenantID:       suite.tenantID,
		BillingType:    domain.BillingPostpaid,
		CreditLimit:    &limit,
		CurrentBalance: decimal.NewFromInt(150),
		IsActive:       true,
	}
	now := time.Now().UTC()
	reason := "credit limit exceeded"
	suspended := over
	suspended.SuspendedAt = &now
	suspended.SuspensionReason = &reason

	suite.mockBillingRepo.On("FindBillingAccountByTenantID", ctx, suite.tenantID).Return(&over, nil).Once()
	suite.mockBillingRepo.On("SuspendBillingAccount", ctx, suite.tenantID, "credit limit exceeded", suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockBillingRepo.On("FindBillingAccountByTenantID", ctx, suite.tenantID).Return(&suspended, nil).Once()

	account, err := suite.service.EvaluateCredit(ctx, suite.tenantID, suite.userID)

	suite.Require().NoError(err)
	suite.True(account.IsSuspended())
	suite.mockBillingRepo.AssertExpectations(suite.T())
}

func (suite *BillingServiceTestSuite) TestEvaluateCredit_ReactivatesWhenBackUnderLimit() {
	ctx := context.Background()
	limit := decimal.NewFromInt(100)
	now := time.Now().UTC()
	reason := "credit limit exceeded"
	under := domain.BillingAccount{
		TenantID:         suite.tenantID,
		BillingType:      domain.BillingPostpaid,
		CreditLimit:      &limit,
		CurrentBalance:   decimal.NewFromInt(50),
		IsActive:         true,
		SuspendedAt:      &now,
		SuspensionReason: &reason,
	}
	reactivated := under
	reactivated.SuspendedAt = nil
	reactivated.SuspensionReason = nil

	suite.mockBillingRepo.On("FindBillingAccountByTenantID", ctx, suite.tenantID).Return(&under, nil).Once()
	suite.mockBillingRepo.On("ReactivateBillingAccount", ctx, suite.tenantID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockBillingRepo.On("FindBillingAccountByTenantID", ctx, suite.tenantID).Return(&reactivated, nil).Once()

	account, err := suite.service.EvaluateCredit(ctx, suite.tenantID, suite.userID)

	suite.Require().NoError(err)
	suite.False(account.IsSuspended())
}

func (suite *BillingServiceTestSuite) TestEvaluateCredit_ManualSuspensionNotLifted() {
	ctx := context.Background()
	limit := decimal.NewFromInt(100)
	now := time.Now().UTC()
	reason := "subscription payment past due"
	account := domain.BillingAccount{
		TenantID:         suite.tenantID,
		BillingType:      domain.BillingPostpaid,
		CreditLimit:      &limit,
		CurrentBalance:   decimal.NewFromInt(10),
		IsActive:         true,
		SuspendedAt:      &now,
		SuspensionReason: &reason,
	}

	suite.mockBillingRepo.On("FindBillingAccountByTenantID", ctx, suite.tenantID).Return(&account, nil).Once()

	result, err := suite.service.EvaluateCredit(ctx, suite.tenantID, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.IsSuspended())
	suite.mockBillingRepo.AssertNotCalled(suite.T(), "ReactivateBillingAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BillingServiceTestSuite) TestRecordExternalPayment_ReducesOutstandingBalance() {
	ctx := context.Background()
	account := domain.BillingAccount{
		TenantID:       suite.tenantID,
		BillingType:    domain.BillingPostpaid,
		CurrentBalance: decimal.NewFromInt(80),
		IsActive:       true,
	}
	amount := decimal.NewFromInt(30)

	suite.mockBillingRepo.On("FindBillingAccountByTenantID", ctx, suite.tenantID).Return(&account, nil)
	suite.mockBillingRepo.On("ApplyBillingDelta", ctx, suite.tenantID, amount.Neg(), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	_, err := suite.service.RecordExternalPayment(ctx, suite.tenantID, amount, "psp-charge-1", suite.userID)

	suite.Require().NoError(err)
	suite.mockBillingRepo.AssertExpectations(suite.T())
}

func (suite *BillingServiceTestSuite) TestRecordExternalPayment_NonPositiveRejected() {
	ctx := context.Background()

	_, err := suite.service.RecordExternalPayment(ctx, suite.tenantID, decimal.Zero, "psp-charge-2", suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockBillingRepo.AssertNotCalled(suite.T(), "ApplyBillingDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BillingServiceTestSuite) TestEvaluateAllOverLimit_SuspendsBatch() {
	ctx := context.Background()
	accounts := []domain.BillingAccount{
		{TenantID: uuid.NewString()},
		{TenantID: uuid.NewString()},
	}

	suite.mockBillingRepo.On("ListAccountsOverLimit", ctx, 100).Return(accounts, nil).Once()
	suite.mockBillingRepo.On("SuspendBillingAccount", ctx, accounts[0].TenantID, "credit limit exceeded", suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockBillingRepo.On("SuspendBillingAccount", ctx, accounts[1].TenantID, "credit limit exceeded", suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	suspended, err := suite.service.EvaluateAllOverLimit(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(2, suspended)
	suite.mockBillingRepo.AssertExpectations(suite.T())
}

func TestBillingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BillingServiceTestSuite))
}
