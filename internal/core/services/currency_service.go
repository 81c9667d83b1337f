package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nexabot/wallet_billing_core/internal/apperrors"
	"github.com/nexabot/wallet_billing_core/internal/core/domain"
	portsrepo "github.com/nexabot/wallet_billing_core/internal/core/ports/repositories"
	portssvc "github.com/nexabot/wallet_billing_core/internal/core/ports/services"
	"github.com/nexabot/wallet_billing_core/internal/dto"
	"github.com/nexabot/wallet_billing_core/internal/middleware"
)

// currencyService manages the supported currency registry.
type currencyService struct {
	currencyRepo portsrepo.CurrencyRepositoryFacade
}

// NewCurrencyService creates a new currency service.
func NewCurrencyService(currencyRepo portsrepo.CurrencyRepositoryFacade) portssvc.CurrencySvcFacade {
	return &currencyService{currencyRepo: currencyRepo}
}

var _ portssvc.CurrencySvcFacade = (*currencyService)(nil)

func (s *currencyService) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, userID string) (*domain.Currency, error) {
	code := strings.ToUpper(req.CurrencyCode)

	if existing, err := s.currencyRepo.FindCurrencyByCode(ctx, code); err == nil {
		return nil, fmt.Errorf("%w: currency %s", apperrors.ErrDuplicate, existing.CurrencyCode)
	}

	now := time.Now().UTC()
	currency := domain.Currency{
		CurrencyCode: code,
		Symbol:       req.Symbol,
		Name:         req.Name,
		Precision:    req.Precision,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.currencyRepo.SaveCurrency(ctx, currency); err != nil {
		return nil, fmt.Errorf("failed to save currency: %w", err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Currency registered", slog.String("currency_code", code))
	return &currency, nil
}

func (s *currencyService) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	return s.currencyRepo.FindCurrencyByCode(ctx, strings.ToUpper(code))
}

func (s *currencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	return s.currencyRepo.ListCurrencies(ctx)
}
