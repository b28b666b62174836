package ports

import "context"

// FeeCalculator is the pluggable fee policy. Implementations must be pure,
// read-only functions of their inputs at call time.
type FeeCalculator interface {
	DepositFee(ctx context.Context, recipient string, grossAmount uint64) (uint64, error)
	WithdrawalFee(ctx context.Context, requester string, grossAmount uint64) (uint64, error)
}
