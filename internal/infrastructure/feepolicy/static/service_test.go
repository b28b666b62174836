package static_test

import (
	"context"
	"testing"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	badgerdb "github.com/KeelLabsHQ/keelbridge/internal/infrastructure/db/badger"
	"github.com/KeelLabsHQ/keelbridge/internal/infrastructure/feepolicy/static"
	"github.com/stretchr/testify/require"
)

func TestStaticFeePolicy(t *testing.T) {
	ctx := context.Background()

	settingsRepo, err := badgerdb.NewSettingsRepository("", nil)
	require.NoError(t, err)
	defer settingsRepo.Close()

	require.NoError(t, settingsRepo.AddSettings(ctx, domain.Settings{
		DepositFeeSats:    100,
		WithdrawalFeeSats: 50,
	}))

	calculator := static.NewService(settingsRepo)

	fee, err := calculator.DepositFee(ctx, "alice", 100_000)
	require.NoError(t, err)
	require.Equal(t, uint64(100), fee)

	fee, err = calculator.WithdrawalFee(ctx, "alice", 50_000)
	require.NoError(t, err)
	require.Equal(t, uint64(50), fee)

	// Fee amounts are resolved from settings at call time.
	require.NoError(t, settingsRepo.UpdateSettings(ctx, domain.Settings{
		DepositFeeSats:    200,
		WithdrawalFeeSats: 75,
	}))

	fee, err = calculator.DepositFee(ctx, "alice", 100_000)
	require.NoError(t, err)
	require.Equal(t, uint64(200), fee)
}
