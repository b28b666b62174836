package domain

import (
	"context"
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Deposit is the auditable record of a confirmed inbound deposit. Its ID
// doubles as the dedup key: a given identity can mint at most once, ever.
type Deposit struct {
	ID          string // deposit identity, hex
	TxID        string
	Vout        uint32
	Recipient   string
	GrossAmount uint64
	FeeAmount   uint64
	NetAmount   uint64
	CreatedAt   int64
}

// DepositID derives the dedup identity of an external deposit output from its
// transaction id and output index.
func DepositID(txid string, vout uint32) string {
	buf := make([]byte, 0, len(txid)+4)
	buf = append(buf, txid...)
	buf = binary.LittleEndian.AppendUint32(buf, vout)
	return chainhash.DoubleHashH(buf).String()
}

// DepositRepository is an insert-only store of confirmed deposits. Identities
// are never cleared.
type DepositRepository interface {
	// Add stores the deposit, failing with ErrDuplicateDeposit if its
	// identity was already used. The check and the mark are one atomic store
	// operation.
	Add(ctx context.Context, deposit Deposit) error
	Get(ctx context.Context, id string) (*Deposit, error)
	Contains(ctx context.Context, id string) (bool, error)
	GetAll(ctx context.Context) ([]Deposit, error)
	Close()
}
