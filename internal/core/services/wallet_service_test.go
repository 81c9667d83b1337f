package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/core/services"
)

type WalletServiceTestSuite struct {
	suite.Suite
	mockWalletRepo  *MockWalletRepository
	mockCurrencySvc *MockCurrencyService
	service         portssvc.WalletSvcFacade
	tenantID        string
	ownerUserID     string
	userID          string
	usd             domain.Currency
}

func (suite *WalletServiceTestSuite) SetupTest() {
	suite.mockWalletRepo = new(MockWalletRepository)
	suite.mockCurrencySvc = new(MockCurrencyService)
	suite.service = services.NewWalletService(suite.mockWalletRepo, suite.mockCurrencySvc)

	suite.tenantID = uuid.NewString()
	suite.ownerUserID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.usd = domain.Currency{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2}
}

func (suite *WalletServiceTestSuite) TestGetOrCreateWallet_CreatesNew() {
	ctx := context.Background()

	suite.mockCurrencySvc.On("GetCurrency", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockWalletRepo.On("FindWalletByOwner", ctx, suite.ownerUserID, suite.tenantID, "USD").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockWalletRepo.On("CreateWalletIdempotent", ctx, mock.AnythingOfType("domain.Wallet")).
		Run(func(args mock.Arguments) {
			wallet := args.Get(1).(domain.Wallet)
			suite.Equal(domain.WalletActive, wallet.Status)
			suite.True(wallet.Balance.IsZero())
			suite.Equal(int64(1), wallet.Version)
		}).
		Return(&domain.Wallet{
			WalletID:     uuid.NewString(),
			OwnerUserID:  suite.ownerUserID,
			TenantID:     suite.tenantID,
			CurrencyCode: "USD",
			Balance:      decimal.Zero,
			Version:      1,
			Status:       domain.WalletActive,
			IsActive:     true,
		}, nil).Once()

	wallet, err := suite.service.GetOrCreateWallet(ctx, suite.ownerUserID, suite.tenantID, "USD", suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.WalletActive, wallet.Status)
	suite.mockWalletRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestGetOrCreateWallet_ReturnsExisting() {
	ctx := context.Background()
	existing := domain.Wallet{
		WalletID:     uuid.NewString(),
		OwnerUserID:  suite.ownerUserID,
		TenantID:     suite.tenantID,
		CurrencyCode: "USD",
		Balance:      decimal.NewFromInt(42),
		Version:      7,
		Status:       domain.WalletActive,
		IsActive:     true,
	}

	suite.mockCurrencySvc.On("GetCurrency", ctx, "USD").Return(&suite.usd, nil).Once()
	suite.mockWalletRepo.On("FindWalletByOwner", ctx, suite.ownerUserID, suite.tenantID, "USD").Return(&existing, nil).Once()

	wallet, err := suite.service.GetOrCreateWallet(ctx, suite.ownerUserID, suite.tenantID, "USD", suite.userID)

	suite.Require().NoError(err)
	suite.Equal(existing.WalletID, wallet.WalletID)
	suite.mockWalletRepo.AssertNotCalled(suite.T(), "CreateWalletIdempotent", mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestGetOrCreateWallet_UnsupportedCurrencyRejected() {
	ctx := context.Background()

	suite.mockCurrencySvc.On("GetCurrency", ctx, "XXX").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetOrCreateWallet(ctx, suite.ownerUserID, suite.tenantID, "XXX", suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockWalletRepo.AssertNotCalled(suite.T(), "FindWalletByOwner", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestGetWallet_OtherTenantHidden() {
	ctx := context.Background()
	wallet := domain.Wallet{
		WalletID: uuid.NewString(),
		TenantID: uuid.NewString(), // some other tenant
	}

	suite.mockWalletRepo.On("FindWalletByID", ctx, wallet.WalletID).Return(&wallet, nil).Once()

	_, err := suite.service.GetWallet(ctx, suite.tenantID, wallet.WalletID)

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *WalletServiceTestSuite) TestSuspendWallet_SetsStatus() {
	ctx := context.Background()
	wallet := domain.Wallet{
		WalletID: uuid.NewString(),
		TenantID: suite.tenantID,
		Status:   domain.WalletActive,
		IsActive: true,
	}

	suite.mockWalletRepo.On("FindWalletByID", ctx, wallet.WalletID).Return(&wallet, nil).Once()
	suite.mockWalletRepo.On("SetWalletStatus", ctx, wallet.WalletID, domain.WalletSuspended, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.SuspendWallet(ctx, suite.tenantID, wallet.WalletID, suite.userID)

	suite.Require().NoError(err)
	suite.mockWalletRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestSuspendWallet_AlreadySuspendedIdempotent() {
	ctx := context.Background()
	wallet := domain.Wallet{
		WalletID: uuid.NewString(),
		TenantID: suite.tenantID,
		Status:   domain.WalletSuspended,
		IsActive: true,
	}

	suite.mockWalletRepo.On("FindWalletByID", ctx, wallet.WalletID).Return(&wallet, nil).Once()

	err := suite.service.SuspendWallet(ctx, suite.tenantID, wallet.WalletID, suite.userID)

	suite.Require().NoError(err)
	suite.mockWalletRepo.AssertNotCalled(suite.T(), "SetWalletStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestActivateWallet_ReactivatesSuspended() {
	ctx := context.Background()
	wallet := domain.Wallet{
		WalletID: uuid.NewString(),
		TenantID: suite.tenantID,
		Status:   domain.WalletSuspended,
		IsActive: true,
	}

	suite.mockWalletRepo.On("FindWalletByID", ctx, wallet.WalletID).Return(&wallet, nil).Once()
	suite.mockWalletRepo.On("SetWalletStatus", ctx, wallet.WalletID, domain.WalletActive, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.ActivateWallet(ctx, suite.tenantID, wallet.WalletID, suite.userID)

	suite.Require().NoError(err)
	suite.mockWalletRepo.AssertExpectations(suite.T())
}

func TestWalletServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WalletServiceTestSuite))
}
