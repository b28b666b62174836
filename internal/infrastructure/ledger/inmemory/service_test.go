package inmemory_test

import (
	"context"
	"testing"

	"github.com/KeelLabsHQ/keelbridge/internal/infrastructure/ledger/inmemory"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()
	ledger := inmemory.NewService()

	precision, err := ledger.UnitPrecision(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(8), precision)

	require.NoError(t, ledger.Issue(ctx, "alice", 1_000))
	require.Equal(t, uint64(1_000), ledger.Balance("alice"))
	require.Equal(t, uint64(1_000), ledger.TotalSupply())

	require.Error(t, ledger.Issue(ctx, "", 1))

	require.NoError(t, ledger.Move(ctx, "alice", "escrow", 400))
	require.Equal(t, uint64(600), ledger.Balance("alice"))
	require.Equal(t, uint64(400), ledger.Balance("escrow"))
	require.Equal(t, uint64(1_000), ledger.TotalSupply())

	require.Error(t, ledger.Move(ctx, "alice", "escrow", 601))
	require.Error(t, ledger.Move(ctx, "alice", "", 1))

	require.NoError(t, ledger.Destroy(ctx, "escrow", 400))
	require.Zero(t, ledger.Balance("escrow"))
	require.Equal(t, uint64(600), ledger.TotalSupply())

	require.Error(t, ledger.Destroy(ctx, "escrow", 1))
}
