package domain_test

import (
	"testing"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/stretchr/testify/require"
)

const testDestination = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"

func pendingWithdrawal() domain.Withdrawal {
	return domain.Withdrawal{
		ID:          1,
		Requester:   "alice",
		Destination: testDestination,
		GrossAmount: 50_000,
		ExpectedFee: 50,
	}
}

func TestWithdrawalTransitions(t *testing.T) {
	t.Run("lock only from pending unlocked", func(t *testing.T) {
		w := pendingWithdrawal()
		require.NoError(t, w.Lock())
		require.True(t, w.InFlight())

		require.ErrorIs(t, w.Lock(), domain.ErrAlreadyLocked)

		require.NoError(t, w.Unlock())
		require.False(t, w.InFlight())
		require.ErrorIs(t, w.Unlock(), domain.ErrNotLocked)
	})

	t.Run("finalize requires lock and settlement proof", func(t *testing.T) {
		w := pendingWithdrawal()
		require.ErrorIs(t, w.Finalize(49_000, 500, 450, "txid", 0), domain.ErrNotLocked)

		require.NoError(t, w.Lock())
		require.ErrorIs(t, w.Finalize(49_000, 500, 450, "", 0), domain.ErrMissingSettlementProof)

		require.NoError(t, w.Finalize(49_000, 500, 450, "settlement-txid", 1))
		require.True(t, w.Processed)
		require.False(t, w.Locked)
		// The full gross is burned, not the reported spend total.
		require.Equal(t, uint64(50_000), w.BurnedAmount)
		require.Equal(t, "settlement-txid", w.SettlementTxID)
		require.Equal(t, uint32(1), w.SettlementVout)

		require.ErrorIs(t, w.Lock(), domain.ErrAlreadyProcessed)
		require.ErrorIs(t, w.Finalize(1, 1, 1, "other", 0), domain.ErrAlreadyProcessed)
		_, err := w.Cancel("alice")
		require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	})

	t.Run("cancel refunds full gross fee-free", func(t *testing.T) {
		w := pendingWithdrawal()

		_, err := w.Cancel("mallory")
		require.ErrorIs(t, err, domain.ErrNotRequester)

		require.NoError(t, w.Lock())
		_, err = w.Cancel("alice")
		require.ErrorIs(t, err, domain.ErrInFlight)

		require.NoError(t, w.Unlock())
		refund, err := w.Cancel("alice")
		require.NoError(t, err)
		require.Equal(t, uint64(50_000), refund)
		require.Zero(t, w.GrossAmount)
		require.True(t, w.Processed)

		_, err = w.Cancel("alice")
		require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
		require.ErrorIs(t, w.Unlock(), domain.ErrAlreadyProcessed)
	})
}

func TestValidateAddress(t *testing.T) {
	require.NoError(t, domain.ValidateAddress(testDestination))
	require.ErrorIs(t, domain.ValidateAddress("too-short"), domain.ErrInvalidInput)
	require.ErrorIs(t, domain.ValidateAddress(""), domain.ErrInvalidInput)
}

func TestDepositID(t *testing.T) {
	id := domain.DepositID("aa11", 0)
	require.Len(t, id, 64)
	require.Equal(t, id, domain.DepositID("aa11", 0))
	require.NotEqual(t, id, domain.DepositID("aa11", 1))
	require.NotEqual(t, id, domain.DepositID("bb22", 0))
}
