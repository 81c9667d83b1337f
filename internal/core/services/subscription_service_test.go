package services_test

import (
	"context"
	"errors"
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

const testGracePeriod = 72 * time.Hour

type SubscriptionServiceTestSuite struct {
	suite.Suite
	mockSubRepo    *MockSubscriptionRepository
	mockWalletRepo *MockWalletRepository
	mockEngine     *MockEngineService
	mockBillingSvc *MockBillingService
	service        portssvc.SubscriptionSvcFacade
	tenantID       string
	userID         string
	account        domain.BillingAccount
	wallet         domain.Wallet
	paidPlan       domain.Plan
	trialPlan      domain.Plan
}

func (suite *SubscriptionServiceTestSuite) SetupTest() {
	suite.mockSubRepo = new(MockSubscriptionRepository)
	suite.mockWalletRepo = new(MockWalletRepository)
	suite.mockEngine = new(MockEngineService)
	suite.mockBillingSvc = new(MockBillingService)
	suite.service = services.NewSubscriptionService(
		suite.mockSubRepo,
		suite.mockWalletRepo,
		suite.mockEngine,
		suite.mockBillingSvc,
		testGracePeriod,
	)

	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.account = domain.BillingAccount{
		BillingAccountID: uuid.NewString(),
		TenantID:         suite.tenantID,
		BillingType:      domain.BillingSubscription,
		CurrencyCode:     "USD",
		IsActive:         true,
	}
	suite.wallet = domain.Wallet{
		WalletID:     uuid.NewString(),
		TenantID:     suite.tenantID,
		CurrencyCode: "USD",
		Balance:      decimal.NewFromInt(100),
		Version:      1,
		Status:       domain.WalletActive,
		IsActive:     true,
	}
	suite.paidPlan = domain.Plan{
		PlanCode:          "pro",
		Name:              "Pro",
		Price:             decimal.NewFromInt(20),
		CurrencyCode:      "USD",
		BillingPeriodDays: 30,
		Features: []domain.PlanFeature{
			{FeatureCode: "api_access", Enabled: true, Limit: 1000},
			{FeatureCode: "sso", Enabled: false},
		},
		IsActive: true,
	}
	suite.trialPlan = suite.paidPlan
	suite.trialPlan.PlanCode = "pro-trial"
	suite.trialPlan.TrialDays = 14
}

func (suite *SubscriptionServiceTestSuite) TestStartSubscription_TrialPlanOpensTrialWithoutCharge() {
	ctx := context.Background()
	req := dto.StartSubscriptionRequest{PlanCode: "pro-trial", AutoRenew: true}

	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro-trial").Return(&suite.trialPlan, nil).Once()
	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockBillingSvc.On("GetBillingAccount", ctx, suite.tenantID).Return(&suite.account, nil).Once()
	suite.mockSubRepo.On("CreateSubscriptionIdempotent", ctx, mock.AnythingOfType("domain.Subscription")).
		Run(func(args mock.Arguments) {
			sub := args.Get(1).(domain.Subscription)
			suite.Equal(domain.SubTrialing, sub.Status)
			suite.NotNil(sub.TrialEnd)
		}).
		Return(&domain.Subscription{
			SubscriptionID: uuid.NewString(),
			TenantID:       suite.tenantID,
			PlanCode:       "pro-trial",
			Status:         domain.SubTrialing,
		}, nil).Once()

	sub, err := suite.service.StartSubscription(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.SubTrialing, sub.Status)
	suite.mockEngine.AssertNotCalled(suite.T(), "Purchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SubscriptionServiceTestSuite) TestStartSubscription_NoTrialChargesFirstPeriod() {
	ctx := context.Background()
	req := dto.StartSubscriptionRequest{PlanCode: "pro", AutoRenew: true}

	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil).Once()
	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockBillingSvc.On("GetBillingAccount", ctx, suite.tenantID).Return(&suite.account, nil).Once()
	suite.mockWalletRepo.On("ListWalletsByTenant", ctx, suite.tenantID).Return([]domain.Wallet{suite.wallet}, nil).Once()
	suite.mockEngine.On("Purchase", ctx, suite.tenantID, suite.wallet.WalletID, mock.AnythingOfType("dto.TransactionRequest"), "system").
		Run(func(args mock.Arguments) {
			chargeReq := args.Get(3).(dto.TransactionRequest)
			suite.True(chargeReq.Amount.Equal(suite.paidPlan.Price))
			suite.Contains(chargeReq.Reference, "SUB:")
		}).
		Return(&portssvc.ExecutionResult{}, nil).Once()
	suite.mockSubRepo.On("CreateSubscriptionIdempotent", ctx, mock.AnythingOfType("domain.Subscription")).
		Return(&domain.Subscription{
			SubscriptionID: uuid.NewString(),
			TenantID:       suite.tenantID,
			PlanCode:       "pro",
			Status:         domain.SubActive,
		}, nil).Once()

	sub, err := suite.service.StartSubscription(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.SubActive, sub.Status)
	suite.mockEngine.AssertExpectations(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TestStartSubscription_SamePlanIdempotent() {
	ctx := context.Background()
	existing := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		PlanCode:       "pro",
		Status:         domain.SubActive,
	}
	req := dto.StartSubscriptionRequest{PlanCode: "pro", AutoRenew: true}

	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil).Once()
	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(&existing, nil).Once()

	sub, err := suite.service.StartSubscription(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(existing.SubscriptionID, sub.SubscriptionID)
	suite.mockSubRepo.AssertNotCalled(suite.T(), "CreateSubscriptionIdempotent", mock.Anything, mock.Anything)
}

func (suite *SubscriptionServiceTestSuite) TestStartSubscription_OtherPlanActiveRejected() {
	ctx := context.Background()
	existing := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		PlanCode:       "starter",
		Status:         domain.SubActive,
	}
	req := dto.StartSubscriptionRequest{PlanCode: "pro", AutoRenew: true}

	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil).Once()
	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(&existing, nil).Once()

	_, err := suite.service.StartSubscription(ctx, suite.tenantID, req, suite.userID)

	suite.Require().ErrorIs(err, services.ErrSubscriptionExists)
}

func (suite *SubscriptionServiceTestSuite) TestStartSubscription_InactivePlanRejected() {
	ctx := context.Background()
	inactive := suite.paidPlan
	inactive.IsActive = false
	req := dto.StartSubscriptionRequest{PlanCode: "pro", AutoRenew: true}

	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&inactive, nil).Once()

	_, err := suite.service.StartSubscription(ctx, suite.tenantID, req, suite.userID)

	suite.Require().ErrorIs(err, services.ErrPlanNotFound)
}

func (suite *SubscriptionServiceTestSuite) TestCancel_KeepsAccessUntilPeriodEnd() {
	ctx := context.Background()
	nextBilling := time.Now().UTC().Add(10 * 24 * time.Hour)
	sub := domain.Subscription{
		SubscriptionID:  uuid.NewString(),
		TenantID:        suite.tenantID,
		PlanCode:        "pro",
		Status:          domain.SubActive,
		AutoRenew:       true,
		NextBillingDate: &nextBilling,
	}

	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(&sub, nil).Once()
	suite.mockSubRepo.On("UpdateSubscription", ctx, mock.AnythingOfType("domain.Subscription")).Return(nil).Once()

	cancelled, err := suite.service.Cancel(ctx, suite.tenantID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.SubCancelled, cancelled.Status)
	suite.False(cancelled.AutoRenew)
	suite.Require().NotNil(cancelled.EndsAt)
	suite.True(cancelled.EndsAt.Equal(nextBilling))
}

func (suite *SubscriptionServiceTestSuite) TestCancel_AlreadyCancelledIdempotent() {
	ctx := context.Background()
	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		Status:         domain.SubCancelled,
	}

	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(&sub, nil).Once()

	cancelled, err := suite.service.Cancel(ctx, suite.tenantID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.SubCancelled, cancelled.Status)
	suite.mockSubRepo.AssertNotCalled(suite.T(), "UpdateSubscription", mock.Anything, mock.Anything)
}

func (suite *SubscriptionServiceTestSuite) TestCancel_ExpiredRejected() {
	ctx := context.Background()
	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		Status:         domain.SubExpired,
	}

	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(&sub, nil).Once()

	_, err := suite.service.Cancel(ctx, suite.tenantID, suite.userID)

	suite.Require().ErrorIs(err, services.ErrInvalidStateTransition)
}

func (suite *SubscriptionServiceTestSuite) emptySweepPhase(ctx context.Context, method string) {
	suite.mockSubRepo.On(method, ctx, mock.AnythingOfType("time.Time"), 100).Return([]domain.Subscription{}, nil).Once()
}

func (suite *SubscriptionServiceTestSuite) TestRunSweep_TrialWithoutAutoRenewExpires() {
	ctx := context.Background()
	now := time.Now().UTC()
	trialEnd := now.Add(-time.Hour)
	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		PlanCode:       "pro-trial",
		Status:         domain.SubTrialing,
		TrialEnd:       &trialEnd,
		AutoRenew:      false,
	}

	suite.mockSubRepo.On("ListTrialsEndingBefore", ctx, now, 100).Return([]domain.Subscription{sub}, nil).Once()
	suite.mockSubRepo.On("UpdateSubscription", ctx, mock.MatchedBy(func(s domain.Subscription) bool {
		return s.Status == domain.SubExpired
	})).Return(nil).Once()
	suite.emptySweepPhase(ctx, "ListRenewalsDueBefore")
	suite.emptySweepPhase(ctx, "ListPastDueSince")

	result, err := suite.service.RunSweep(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, result.TrialsExpired)
	suite.mockSubRepo.AssertExpectations(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TestRunSweep_TrialWithAutoRenewChargesAndActivates() {
	ctx := context.Background()
	now := time.Now().UTC()
	trialEnd := now.Add(-time.Hour)
	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		PlanCode:       "pro",
		Status:         domain.SubTrialing,
		TrialEnd:       &trialEnd,
		AutoRenew:      true,
	}

	suite.mockSubRepo.On("ListTrialsEndingBefore", ctx, now, 100).Return([]domain.Subscription{sub}, nil).Once()
	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil).Once()
	suite.mockWalletRepo.On("ListWalletsByTenant", ctx, suite.tenantID).Return([]domain.Wallet{suite.wallet}, nil).Once()
	suite.mockEngine.On("Purchase", ctx, suite.tenantID, suite.wallet.WalletID, mock.AnythingOfType("dto.TransactionRequest"), "system").
		Return(&portssvc.ExecutionResult{}, nil).Once()
	suite.mockSubRepo.On("UpdateSubscription", ctx, mock.MatchedBy(func(s domain.Subscription) bool {
		return s.Status == domain.SubActive && s.NextBillingDate != nil && s.PastDueSince == nil
	})).Return(nil).Once()
	suite.emptySweepPhase(ctx, "ListRenewalsDueBefore")
	suite.emptySweepPhase(ctx, "ListPastDueSince")

	result, err := suite.service.RunSweep(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, result.TrialsActivated)
}

func (suite *SubscriptionServiceTestSuite) TestRunSweep_DeclinedTrialChargeExpires() {
	ctx := context.Background()
	now := time.Now().UTC()
	trialEnd := now.Add(-time.Hour)
	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		PlanCode:       "pro",
		Status:         domain.SubTrialing,
		TrialEnd:       &trialEnd,
		AutoRenew:      true,
	}

	suite.mockSubRepo.On("ListTrialsEndingBefore", ctx, now, 100).Return([]domain.Subscription{sub}, nil).Once()
	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil).Once()
	suite.mockWalletRepo.On("ListWalletsByTenant", ctx, suite.tenantID).Return([]domain.Wallet{suite.wallet}, nil).Once()
	suite.mockEngine.On("Purchase", ctx, suite.tenantID, suite.wallet.WalletID, mock.AnythingOfType("dto.TransactionRequest"), "system").
		Return(nil, services.ErrInsufficientFunds).Once()
	// A trial that ends without a successful charge expires, never PAST_DUE.
	suite.mockSubRepo.On("UpdateSubscription", ctx, mock.MatchedBy(func(s domain.Subscription) bool {
		return s.Status == domain.SubExpired && s.EndsAt != nil
	})).Return(nil).Once()
	suite.emptySweepPhase(ctx, "ListRenewalsDueBefore")
	suite.emptySweepPhase(ctx, "ListPastDueSince")

	result, err := suite.service.RunSweep(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, result.TrialsExpired)
	suite.Equal(0, result.TrialsActivated)
	suite.Equal(0, result.MarkedPastDue)
	suite.mockBillingSvc.AssertNotCalled(suite.T(), "SuspendTenant", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SubscriptionServiceTestSuite) TestRunSweep_DeclinedRenewalMarksPastDue() {
	ctx := context.Background()
	now := time.Now().UTC()
	due := now.Add(-time.Hour)
	sub := domain.Subscription{
		SubscriptionID:  uuid.NewString(),
		TenantID:        suite.tenantID,
		PlanCode:        "pro",
		Status:          domain.SubActive,
		AutoRenew:       true,
		NextBillingDate: &due,
	}

	suite.emptySweepPhase(ctx, "ListTrialsEndingBefore")
	suite.mockSubRepo.On("ListRenewalsDueBefore", ctx, now, 100).Return([]domain.Subscription{sub}, nil).Once()
	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil).Once()
	suite.mockWalletRepo.On("ListWalletsByTenant", ctx, suite.tenantID).Return([]domain.Wallet{suite.wallet}, nil).Once()
	suite.mockEngine.On("Purchase", ctx, suite.tenantID, suite.wallet.WalletID, mock.AnythingOfType("dto.TransactionRequest"), "system").
		Return(nil, services.ErrInsufficientFunds).Once()
	suite.mockSubRepo.On("UpdateSubscription", ctx, mock.MatchedBy(func(s domain.Subscription) bool {
		return s.Status == domain.SubPastDue && s.PastDueSince != nil
	})).Return(nil).Once()
	suite.emptySweepPhase(ctx, "ListPastDueSince")

	result, err := suite.service.RunSweep(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, result.MarkedPastDue)
}

func (suite *SubscriptionServiceTestSuite) TestRunSweep_TransientRenewalFailureLeavesStateAlone() {
	ctx := context.Background()
	now := time.Now().UTC()
	due := now.Add(-time.Hour)
	sub := domain.Subscription{
		SubscriptionID:  uuid.NewString(),
		TenantID:        suite.tenantID,
		PlanCode:        "pro",
		Status:          domain.SubActive,
		AutoRenew:       true,
		NextBillingDate: &due,
	}

	suite.emptySweepPhase(ctx, "ListTrialsEndingBefore")
	suite.mockSubRepo.On("ListRenewalsDueBefore", ctx, now, 100).Return([]domain.Subscription{sub}, nil).Once()
	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil).Once()
	suite.mockWalletRepo.On("ListWalletsByTenant", ctx, suite.tenantID).Return([]domain.Wallet{suite.wallet}, nil).Once()
	suite.mockEngine.On("Purchase", ctx, suite.tenantID, suite.wallet.WalletID, mock.AnythingOfType("dto.TransactionRequest"), "system").
		Return(nil, errors.New("connection reset")).Once()
	suite.emptySweepPhase(ctx, "ListPastDueSince")

	result, err := suite.service.RunSweep(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(0, result.Renewed)
	suite.mockSubRepo.AssertNotCalled(suite.T(), "UpdateSubscription", mock.Anything, mock.Anything)
}

func (suite *SubscriptionServiceTestSuite) TestRunSweep_PastDueBeyondGraceSuspendsTenant() {
	ctx := context.Background()
	now := time.Now().UTC()
	pastDueSince := now.Add(-testGracePeriod - time.Hour)
	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		PlanCode:       "pro",
		Status:         domain.SubPastDue,
		AutoRenew:      true,
		PastDueSince:   &pastDueSince,
	}

	suite.emptySweepPhase(ctx, "ListTrialsEndingBefore")
	suite.emptySweepPhase(ctx, "ListRenewalsDueBefore")
	suite.mockSubRepo.On("ListPastDueSince", ctx, now.Add(-testGracePeriod), 100).Return([]domain.Subscription{sub}, nil).Once()
	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil).Once()
	suite.mockWalletRepo.On("ListWalletsByTenant", ctx, suite.tenantID).Return([]domain.Wallet{suite.wallet}, nil).Once()
	suite.mockEngine.On("Purchase", ctx, suite.tenantID, suite.wallet.WalletID, mock.AnythingOfType("dto.TransactionRequest"), "system").
		Return(nil, services.ErrInsufficientFunds).Once()
	suite.mockSubRepo.On("UpdateSubscription", ctx, mock.MatchedBy(func(s domain.Subscription) bool {
		return s.Status == domain.SubSuspended
	})).Return(nil).Once()
	suite.mockBillingSvc.On("SuspendTenant", ctx, suite.tenantID, "subscription payment past due", "system", now).Return(nil).Once()

	result, err := suite.service.RunSweep(ctx, now)

	suite.Require().NoError(err)
	suite.Equal(1, result.Suspended)
	suite.mockBillingSvc.AssertExpectations(suite.T())
}

func (suite *SubscriptionServiceTestSuite) TestCheckEntitlement_ActivePlanFeature() {
	ctx := context.Background()
	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		PlanCode:       "pro",
		Status:         domain.SubActive,
	}

	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(&sub, nil)
	suite.mockSubRepo.On("FindPlanByCode", ctx, "pro").Return(&suite.paidPlan, nil)

	granted, err := suite.service.CheckEntitlement(ctx, suite.tenantID, "api_access")
	suite.Require().NoError(err)
	suite.True(granted.Allowed)
	suite.Equal(int64(1000), granted.Limit)

	disabled, err := suite.service.CheckEntitlement(ctx, suite.tenantID, "sso")
	suite.Require().NoError(err)
	suite.False(disabled.Allowed)

	missing, err := suite.service.CheckEntitlement(ctx, suite.tenantID, "unknown")
	suite.Require().NoError(err)
	suite.False(missing.Allowed)
}

func (suite *SubscriptionServiceTestSuite) TestCheckEntitlement_NoSubscriptionDenied() {
	ctx := context.Background()

	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(nil, apperrors.ErrNotFound).Once()

	ent, err := suite.service.CheckEntitlement(ctx, suite.tenantID, "api_access")

	suite.Require().NoError(err)
	suite.False(ent.Allowed)
	suite.Equal("no subscription", ent.Reason)
}

func (suite *SubscriptionServiceTestSuite) TestCheckEntitlement_SuspendedDenied() {
	ctx := context.Background()
	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		TenantID:       suite.tenantID,
		PlanCode:       "pro",
		Status:         domain.SubSuspended,
	}

	suite.mockSubRepo.On("FindSubscriptionByTenantID", ctx, suite.tenantID).Return(&sub, nil).Once()

	ent, err := suite.service.CheckEntitlement(ctx, suite.tenantID, "api_access")

	suite.Require().NoError(err)
	suite.False(ent.Allowed)
}

func TestSubscriptionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceTestSuite))
}
