package ports

import "context"

// AssetLedger is the external fungible-asset accounting component holding the
// synthetic asset balances. All calls complete synchronously; a failure aborts
// the whole bridge operation.
type AssetLedger interface {
	Issue(ctx context.Context, account string, amount uint64) error
	Destroy(ctx context.Context, account string, amount uint64) error
	Move(ctx context.Context, from, to string, amount uint64) error
	// UnitPrecision returns the ledger's fixed decimal precision. The bridge
	// validates once at setup that it equals 8.
	UnitPrecision(ctx context.Context) (uint32, error)
}
