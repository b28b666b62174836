package ports

import "context"

// DepositClaim describes a deposit submitted for approval.
type DepositClaim struct {
	DepositID   string
	TxID        string
	Vout        uint32
	Recipient   string
	GrossAmount uint64
}

// DepositApprovalOracle vets a deposit claim before minting, typically against
// a proof-of-reserve or compliance service. A false result or an error both
// block minting with no state change.
type DepositApprovalOracle interface {
	Approve(ctx context.Context, claim DepositClaim) (bool, error)
}
