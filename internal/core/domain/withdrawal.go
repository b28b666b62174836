package domain

import (
	"context"
	"fmt"
)

// MinAddressLength is the shortest length a destination or custody address may
// have, matching the shortest valid base58 Bitcoin address.
const MinAddressLength = 26

// Withdrawal is a redemption request: the requester's tokens are escrowed at
// creation and either refunded on cancellation or burned in full on finalize.
// Records are never deleted and ids are never reused.
type Withdrawal struct {
	ID             uint64
	Requester      string
	Destination    string
	GrossAmount    uint64 // escrowed at creation, zeroed on cancellation
	ExpectedFee    uint64 // computed once at creation, never recomputed
	Processed      bool
	Locked         bool
	BurnedAmount   uint64
	SettlementTxID string
	SettlementVout uint32
	UserReceive    uint64 // reported payout figures, audit only
	MinerFee       uint64
	OperatorFee    uint64
	CreatedAt      int64
}

// ValidateAddress applies the minimum-length sanity check used for both
// withdrawal destinations and custody addresses.
func ValidateAddress(address string) error {
	if len(address) < MinAddressLength {
		return fmt.Errorf("%w: address %q shorter than %d chars", ErrInvalidInput, address, MinAddressLength)
	}
	return nil
}

// InFlight reports whether an off-chain payout is underway.
func (w *Withdrawal) InFlight() bool {
	return w.Locked && !w.Processed
}

// Lock marks the withdrawal as having an in-flight off-chain payout. Only a
// pending, unlocked record can be locked.
func (w *Withdrawal) Lock() error {
	if w.Processed {
		return ErrAlreadyProcessed
	}
	if w.Locked {
		return ErrAlreadyLocked
	}
	w.Locked = true
	return nil
}

// Unlock releases an aborted off-chain payout so the record can be re-locked
// or cancelled by the requester.
func (w *Withdrawal) Unlock() error {
	if w.Processed {
		return ErrAlreadyProcessed
	}
	if !w.Locked {
		return ErrNotLocked
	}
	w.Locked = false
	return nil
}

// Finalize records the real-world settlement and marks the full escrowed gross
// amount for burning. The reported spend figures are stored for audit only and
// are deliberately not balanced against the gross amount.
func (w *Withdrawal) Finalize(userReceive, minerFee, operatorFee uint64, settlementTxID string, settlementVout uint32) error {
	if w.Processed {
		return ErrAlreadyProcessed
	}
	if !w.Locked {
		return ErrNotLocked
	}
	if settlementTxID == "" {
		return ErrMissingSettlementProof
	}
	w.BurnedAmount = w.GrossAmount
	w.SettlementTxID = settlementTxID
	w.SettlementVout = settlementVout
	w.UserReceive = userReceive
	w.MinerFee = minerFee
	w.OperatorFee = operatorFee
	w.Processed = true
	w.Locked = false
	return nil
}

// Cancel terminates a pending, unlocked withdrawal and returns the amount to
// refund. The stored fee is never collected: cancellation is a full refund.
func (w *Withdrawal) Cancel(caller string) (uint64, error) {
	if caller != w.Requester {
		return 0, ErrNotRequester
	}
	if w.Processed {
		return 0, ErrAlreadyProcessed
	}
	if w.Locked {
		return 0, ErrInFlight
	}
	refund := w.GrossAmount
	w.GrossAmount = 0
	w.Processed = true
	return refund, nil
}

// WithdrawalRepository stores withdrawal records keyed by a monotonically
// increasing identifier starting at 1.
type WithdrawalRepository interface {
	Add(ctx context.Context, withdrawal Withdrawal) (uint64, error)
	Get(ctx context.Context, id uint64) (*Withdrawal, error)
	Update(ctx context.Context, withdrawal Withdrawal) error
	GetAll(ctx context.Context) ([]Withdrawal, error)
	Close()
}
