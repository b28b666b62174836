package static

import (
	"context"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/KeelLabsHQ/keelbridge/internal/core/ports"
)

// service is a flat-fee calculator. The fee amounts are resolved from the
// settings store at call time, so an admin fee-policy update takes effect on
// the next operation without swapping the calculator instance.
type service struct {
	settingsRepo domain.SettingsRepository
}

func NewService(settingsRepo domain.SettingsRepository) ports.FeeCalculator {
	return &service{settingsRepo}
}

func (s *service) DepositFee(ctx context.Context, recipient string, grossAmount uint64) (uint64, error) {
	settings, err := s.settingsRepo.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.DepositFeeSats, nil
}

func (s *service) WithdrawalFee(ctx context.Context, requester string, grossAmount uint64) (uint64, error) {
	settings, err := s.settingsRepo.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.WithdrawalFeeSats, nil
}
