package db_test

import (
	"context"
	"testing"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/KeelLabsHQ/keelbridge/internal/core/ports"
	"github.com/KeelLabsHQ/keelbridge/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

var dbs = map[string]func() (ports.RepoManager, error){
	"badger": func() (ports.RepoManager, error) {
		return db.NewService(db.ServiceConfig{
			DbType:   "badger",
			DbConfig: []any{"", nil},
		})
	},
}

func TestRepoManager(t *testing.T) {
	for name, factory := range dbs {
		t.Run(name, func(t *testing.T) {
			svc, err := factory()
			require.NoError(t, err)
			defer svc.Close()

			testWithdrawalRepo(t, svc.Withdrawals())
			testDepositRepo(t, svc.Deposits())
			testCustodyRepo(t, svc.CustodyAddresses())
			testAccessRepo(t, svc.Access())
			testSettingsRepo(t, svc.Settings())
		})
	}
}

func testWithdrawalRepo(t *testing.T, repo domain.WithdrawalRepository) {
	t.Run("withdrawal repo", func(t *testing.T) {
		ctx := context.Background()

		_, err := repo.Get(ctx, 1)
		require.ErrorIs(t, err, domain.ErrNotFound)

		withdrawal := domain.Withdrawal{
			Requester:   "alice",
			Destination: "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2",
			GrossAmount: 50_000,
			ExpectedFee: 50,
		}

		// Ids are allocated monotonically from 1.
		id, err := repo.Add(ctx, withdrawal)
		require.NoError(t, err)
		require.Equal(t, uint64(1), id)

		id, err = repo.Add(ctx, withdrawal)
		require.NoError(t, err)
		require.Equal(t, uint64(2), id)

		got, err := repo.Get(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(1), got.ID)
		require.Equal(t, "alice", got.Requester)
		require.False(t, got.Locked)

		got.Locked = true
		require.NoError(t, repo.Update(ctx, *got))

		got, err = repo.Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, got.Locked)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, uint64(1), all[0].ID)
		require.Equal(t, uint64(2), all[1].ID)

		unknown := domain.Withdrawal{ID: 42}
		require.ErrorIs(t, repo.Update(ctx, unknown), domain.ErrNotFound)
	})
}

func testDepositRepo(t *testing.T, repo domain.DepositRepository) {
	t.Run("deposit repo", func(t *testing.T) {
		ctx := context.Background()

		deposit := domain.Deposit{
			ID:          domain.DepositID("txid", 0),
			TxID:        "txid",
			Vout:        0,
			Recipient:   "alice",
			GrossAmount: 100_000,
			FeeAmount:   100,
			NetAmount:   99_900,
		}

		used, err := repo.Contains(ctx, deposit.ID)
		require.NoError(t, err)
		require.False(t, used)

		require.NoError(t, repo.Add(ctx, deposit))

		// The identity is monotone: a second insert always fails.
		err = repo.Add(ctx, deposit)
		require.ErrorIs(t, err, domain.ErrDuplicateDeposit)

		used, err = repo.Contains(ctx, deposit.ID)
		require.NoError(t, err)
		require.True(t, used)

		got, err := repo.Get(ctx, deposit.ID)
		require.NoError(t, err)
		require.Equal(t, deposit, *got)

		_, err = repo.Get(ctx, domain.DepositID("other", 0))
		require.ErrorIs(t, err, domain.ErrNotFound)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})
}

func testCustodyRepo(t *testing.T, repo domain.CustodyAddressRepository) {
	t.Run("custody repo", func(t *testing.T) {
		ctx := context.Background()

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		require.Zero(t, count)

		_, err = repo.Remove(ctx, 0)
		require.ErrorIs(t, err, domain.ErrIndexOutOfBounds)

		for _, addr := range []string{"addr-a", "addr-b", "addr-c"} {
			require.NoError(t, repo.Add(ctx, addr))
		}

		// Duplicates are tolerated.
		require.NoError(t, repo.Add(ctx, "addr-a"))

		count, err = repo.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 4, count)

		// Swap-with-last removal: the last entry takes the removed slot.
		removed, err := repo.Remove(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "addr-b", removed)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"addr-a", "addr-a", "addr-c"}, list)

		_, err = repo.Remove(ctx, 3)
		require.ErrorIs(t, err, domain.ErrIndexOutOfBounds)
		_, err = repo.Remove(ctx, -1)
		require.ErrorIs(t, err, domain.ErrIndexOutOfBounds)
	})
}

func testAccessRepo(t *testing.T, repo domain.AccessRepository) {
	t.Run("access repo", func(t *testing.T) {
		ctx := context.Background()

		has, err := repo.Has(ctx, "op", domain.CapabilityWithdrawal)
		require.NoError(t, err)
		require.False(t, has)

		require.NoError(t, repo.Grant(ctx, "op", domain.CapabilityWithdrawal))
		require.NoError(t, repo.Grant(ctx, "op", domain.CapabilityPause))
		// Granting twice is a no-op.
		require.NoError(t, repo.Grant(ctx, "op", domain.CapabilityWithdrawal))

		has, err = repo.Has(ctx, "op", domain.CapabilityWithdrawal)
		require.NoError(t, err)
		require.True(t, has)

		grants, err := repo.Grants(ctx, "op")
		require.NoError(t, err)
		require.Len(t, grants, 2)

		require.NoError(t, repo.Revoke(ctx, "op", domain.CapabilityWithdrawal))
		has, err = repo.Has(ctx, "op", domain.CapabilityWithdrawal)
		require.NoError(t, err)
		require.False(t, has)

		halted, err := repo.Halted(ctx)
		require.NoError(t, err)
		require.False(t, halted)

		require.NoError(t, repo.SetHalted(ctx, true))
		halted, err = repo.Halted(ctx)
		require.NoError(t, err)
		require.True(t, halted)

		require.NoError(t, repo.SetHalted(ctx, false))
	})
}

func testSettingsRepo(t *testing.T, repo domain.SettingsRepository) {
	t.Run("settings repo", func(t *testing.T) {
		ctx := context.Background()

		_, err := repo.GetSettings(ctx)
		require.ErrorIs(t, err, domain.ErrNotFound)

		settings := domain.Settings{
			FeeRecipient:      "fee-pool",
			DepositFeeSats:    100,
			WithdrawalFeeSats: 50,
		}
		require.NoError(t, repo.AddSettings(ctx, settings))
		require.Error(t, repo.AddSettings(ctx, settings))

		got, err := repo.GetSettings(ctx)
		require.NoError(t, err)
		require.Equal(t, settings, *got)

		settings.WithdrawalFeeSats = 75
		require.NoError(t, repo.UpdateSettings(ctx, settings))

		got, err = repo.GetSettings(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(75), got.WithdrawalFeeSats)
	})
}
