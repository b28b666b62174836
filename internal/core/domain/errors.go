package domain

import "errors"

var (
	// ErrUnauthorized indicates the caller lacks the required capability.
	ErrUnauthorized = errors.New("bridge: caller lacks required capability")

	// ErrHalted indicates the global pause switch is active.
	ErrHalted = errors.New("bridge: bridge is halted")

	// ErrInvalidInput indicates a zero amount, malformed address or zero identifier.
	ErrInvalidInput = errors.New("bridge: invalid input")

	// ErrDuplicateDeposit indicates the deposit identity was already used to mint.
	ErrDuplicateDeposit = errors.New("bridge: deposit already confirmed")

	// ErrHookRejected indicates the approval oracle rejected the deposit.
	ErrHookRejected = errors.New("bridge: deposit rejected by approval oracle")

	// ErrFeeExceedsAmount indicates the computed fee is larger than the gross amount.
	ErrFeeExceedsAmount = errors.New("bridge: fee exceeds gross amount")

	// ErrFeeRecipientUnset indicates a positive fee with no configured recipient.
	ErrFeeRecipientUnset = errors.New("bridge: fee recipient not configured")

	// ErrInsufficientBalance indicates the asset ledger refused the escrow move.
	ErrInsufficientBalance = errors.New("bridge: insufficient balance or approval")

	// ErrAlreadyProcessed indicates the withdrawal reached a terminal state.
	ErrAlreadyProcessed = errors.New("bridge: withdrawal already processed")

	// ErrAlreadyLocked indicates the withdrawal is already locked.
	ErrAlreadyLocked = errors.New("bridge: withdrawal already locked")

	// ErrNotLocked indicates the operation requires a locked withdrawal.
	ErrNotLocked = errors.New("bridge: withdrawal not locked")

	// ErrInFlight indicates a locked withdrawal blocks user cancellation.
	ErrInFlight = errors.New("bridge: withdrawal payout in flight")

	// ErrNotRequester indicates the caller did not create the withdrawal.
	ErrNotRequester = errors.New("bridge: caller is not the requester")

	// ErrMissingSettlementProof indicates finalize was called without a settlement txid.
	ErrMissingSettlementProof = errors.New("bridge: missing settlement txid")

	// ErrIndexOutOfBounds indicates a custody registry index past the end of the list.
	ErrIndexOutOfBounds = errors.New("bridge: index out of bounds")

	// ErrNotFound indicates an unknown record identifier.
	ErrNotFound = errors.New("bridge: not found")

	// ErrReentrantCall indicates a mutating entry point was invoked from within
	// an external collaborator callback of another mutating operation.
	ErrReentrantCall = errors.New("bridge: reentrant call")
)
