package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/KeelLabsHQ/keelbridge/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// requiredPrecision is the unit precision the asset ledger must expose
// (satoshi-equivalent units).
const requiredPrecision = 8

// Service is the bridge core: it owns deposit confirmation, the withdrawal
// state machine, the custody address registry and the access/pause gate.
// Every mutating operation executes atomically with respect to all others;
// external collaborators (fee calculator, approval oracle, asset ledger) are
// called synchronously inside that critical section and any callback from
// them into a mutating entry point fails with ErrReentrantCall.
type Service struct {
	repoManager   ports.RepoManager
	ledger        ports.AssetLedger
	escrowAccount string

	mu    sync.Mutex
	owner atomic.Int64 // goroutine id currently holding mu

	feeCalculator ports.FeeCalculator
	oracle        ports.DepositApprovalOracle // nil means none configured
}

func NewService(
	repoManager ports.RepoManager,
	ledger ports.AssetLedger,
	feeCalculator ports.FeeCalculator,
	oracle ports.DepositApprovalOracle,
	escrowAccount, adminAccount string,
	defaultSettings domain.Settings,
) (*Service, error) {
	if escrowAccount == "" {
		return nil, fmt.Errorf("missing escrow account")
	}
	if feeCalculator == nil {
		return nil, fmt.Errorf("missing fee calculator")
	}

	ctx := context.Background()

	precision, err := ledger.UnitPrecision(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger precision: %w", err)
	}
	if precision != requiredPrecision {
		return nil, fmt.Errorf("asset ledger precision must be %d, got %d", requiredPrecision, precision)
	}

	if _, err := repoManager.Settings().GetSettings(ctx); err != nil {
		if err := repoManager.Settings().AddSettings(ctx, defaultSettings); err != nil {
			return nil, fmt.Errorf("failed to store default settings: %w", err)
		}
	}

	if adminAccount != "" {
		hasAdmin, err := repoManager.Access().Has(ctx, adminAccount, domain.CapabilityAdmin)
		if err != nil {
			return nil, err
		}
		if !hasAdmin {
			if err := repoManager.Access().Grant(ctx, adminAccount, domain.CapabilityAdmin); err != nil {
				return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
			}
			logrus.WithField("account", adminAccount).Info("bootstrapped admin capability")
		}
	}

	return &Service{
		repoManager:   repoManager,
		ledger:        ledger,
		escrowAccount: escrowAccount,
		feeCalculator: feeCalculator,
		oracle:        oracle,
	}, nil
}

// begin enters the global critical section, rejecting reentry from a hook
// running inside another operation on this service.
func (s *Service) begin() error {
	gid := goroutineID()
	if s.owner.Load() == gid {
		return domain.ErrReentrantCall
	}
	s.mu.Lock()
	s.owner.Store(gid)
	return nil
}

func (s *Service) end() {
	s.owner.Store(0)
	s.mu.Unlock()
}

func (s *Service) requireCapability(ctx context.Context, caller string, capability domain.Capability) error {
	ok, err := s.repoManager.Access().Has(ctx, caller, capability)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q needs %q", domain.ErrUnauthorized, caller, capability)
	}
	return nil
}

func (s *Service) requireActive(ctx context.Context) error {
	halted, err := s.repoManager.Access().Halted(ctx)
	if err != nil {
		return err
	}
	if halted {
		return domain.ErrHalted
	}
	return nil
}

// ConfirmDeposit validates and dedups an inbound deposit claim, applies the
// deposit fee and issues the net amount to the recipient. Issuance happens
// only after the dedup mark is committed, so a given deposit identity can
// mint at most once even under retries.
func (s *Service) ConfirmDeposit(
	ctx context.Context, caller, txid string, vout uint32, recipient string, grossAmount uint64,
) (*domain.Deposit, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityDeposit); err != nil {
		return nil, err
	}
	if err := s.requireActive(ctx); err != nil {
		return nil, err
	}
	if txid == "" || recipient == "" || grossAmount == 0 {
		return nil, fmt.Errorf("%w: txid, recipient and amount are required", domain.ErrInvalidInput)
	}

	depositID := domain.DepositID(txid, vout)

	if s.oracle != nil {
		approved, err := s.oracle.Approve(ctx, ports.DepositClaim{
			DepositID:   depositID,
			TxID:        txid,
			Vout:        vout,
			Recipient:   recipient,
			GrossAmount: grossAmount,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrHookRejected, err)
		}
		if !approved {
			return nil, domain.ErrHookRejected
		}
	}

	// Report a replay before the fee checks. The atomic Add below remains the
	// commit; this read keeps a failed fee clamp from masking the duplicate.
	used, err := s.repoManager.Deposits().Contains(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateDeposit, depositID)
	}

	settings, err := s.repoManager.Settings().GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	fee, err := s.feeCalculator.DepositFee(ctx, recipient, grossAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to compute deposit fee: %w", err)
	}
	if fee > grossAmount {
		return nil, fmt.Errorf("%w: fee %d, gross %d", domain.ErrFeeExceedsAmount, fee, grossAmount)
	}
	if fee > 0 && settings.FeeRecipient == "" {
		return nil, domain.ErrFeeRecipientUnset
	}

	deposit := domain.Deposit{
		ID:          depositID,
		TxID:        txid,
		Vout:        vout,
		Recipient:   recipient,
		GrossAmount: grossAmount,
		FeeAmount:   fee,
		NetAmount:   grossAmount - fee,
		CreatedAt:   time.Now().Unix(),
	}

	// Dedup commit. Everything after this point may mint, nothing may retry.
	if err := s.repoManager.Deposits().Add(ctx, deposit); err != nil {
		return nil, err
	}

	if fee > 0 {
		if err := s.ledger.Issue(ctx, settings.FeeRecipient, fee); err != nil {
			return nil, fmt.Errorf("deposit %s recorded but fee issuance failed: %w", depositID, err)
		}
	}
	if err := s.ledger.Issue(ctx, recipient, deposit.NetAmount); err != nil {
		return nil, fmt.Errorf("deposit %s recorded but issuance failed: %w", depositID, err)
	}

	logrus.WithFields(logrus.Fields{
		"depositId": depositID,
		"txid":      txid,
		"vout":      vout,
		"recipient": recipient,
		"gross":     grossAmount,
		"fee":       fee,
		"net":       deposit.NetAmount,
	}).Info("deposit confirmed")

	return &deposit, nil
}

// InitiateWithdrawal escrows the requester's balance and stores a pending
// withdrawal record, returning its identifier. The withdrawal fee is computed
// once here and stored as an accounting figure; it is never moved as tokens.
func (s *Service) InitiateWithdrawal(
	ctx context.Context, requester string, grossAmount uint64, destination string,
) (uint64, error) {
	if err := s.begin(); err != nil {
		return 0, err
	}
	defer s.end()

	if err := s.requireActive(ctx); err != nil {
		return 0, err
	}
	if requester == "" || grossAmount == 0 {
		return 0, fmt.Errorf("%w: requester and amount are required", domain.ErrInvalidInput)
	}
	if err := domain.ValidateAddress(destination); err != nil {
		return 0, err
	}

	fee, err := s.feeCalculator.WithdrawalFee(ctx, requester, grossAmount)
	if err != nil {
		return 0, fmt.Errorf("failed to compute withdrawal fee: %w", err)
	}
	if fee > grossAmount {
		return 0, fmt.Errorf("%w: fee %d, gross %d", domain.ErrFeeExceedsAmount, fee, grossAmount)
	}

	if err := s.ledger.Move(ctx, requester, s.escrowAccount, grossAmount); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrInsufficientBalance, err)
	}

	id, err := s.repoManager.Withdrawals().Add(ctx, domain.Withdrawal{
		Requester:   requester,
		Destination: destination,
		GrossAmount: grossAmount,
		ExpectedFee: fee,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		// The escrow move already happened; return it before failing.
		if moveErr := s.ledger.Move(ctx, s.escrowAccount, requester, grossAmount); moveErr != nil {
			logrus.WithError(moveErr).WithField("requester", requester).
				Error("failed to return escrow after store failure, manual reconciliation required")
		}
		return 0, fmt.Errorf("failed to store withdrawal: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"id":          id,
		"requester":   requester,
		"destination": destination,
		"gross":       grossAmount,
		"expectedFee": fee,
	}).Info("withdrawal initiated")

	return id, nil
}

// LockWithdrawal marks a pending withdrawal as having an in-flight payout.
func (s *Service) LockWithdrawal(ctx context.Context, caller string, id uint64) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()
	return s.lock(ctx, caller, id)
}

// LockWithdrawalBatch locks each id best-effort: ids that fail the state
// precondition are skipped rather than aborting the batch, so partial
// operator retries never revert locks taken earlier in the same call.
// It returns the ids actually locked.
func (s *Service) LockWithdrawalBatch(ctx context.Context, caller string, ids []uint64) ([]uint64, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityWithdrawal); err != nil {
		return nil, err
	}
	if err := s.requireActive(ctx); err != nil {
		return nil, err
	}

	locked := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if err := s.lockRecord(ctx, id); err != nil {
			logrus.WithError(err).WithField("id", id).Debug("skipped in lock batch")
			continue
		}
		locked = append(locked, id)
	}
	logrus.WithFields(logrus.Fields{"caller": caller, "requested": len(ids), "locked": len(locked)}).
		Info("withdrawal batch locked")
	return locked, nil
}

func (s *Service) lock(ctx context.Context, caller string, id uint64) error {
	if err := s.requireCapability(ctx, caller, domain.CapabilityWithdrawal); err != nil {
		return err
	}
	if err := s.requireActive(ctx); err != nil {
		return err
	}
	if err := s.lockRecord(ctx, id); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"id": id, "caller": caller}).Info("withdrawal locked")
	return nil
}

func (s *Service) lockRecord(ctx context.Context, id uint64) error {
	withdrawal, err := s.repoManager.Withdrawals().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := withdrawal.Lock(); err != nil {
		return err
	}
	return s.repoManager.Withdrawals().Update(ctx, *withdrawal)
}

// UnlockWithdrawal releases a locked withdrawal after an aborted payout so it
// can be re-locked or cancelled.
func (s *Service) UnlockWithdrawal(ctx context.Context, caller string, id uint64) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityWithdrawal); err != nil {
		return err
	}
	if err := s.requireActive(ctx); err != nil {
		return err
	}
	withdrawal, err := s.repoManager.Withdrawals().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := withdrawal.Unlock(); err != nil {
		return err
	}
	if err := s.repoManager.Withdrawals().Update(ctx, *withdrawal); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"id": id, "caller": caller}).Info("withdrawal unlocked")
	return nil
}

// FinalizeWithdrawal records the off-chain settlement and burns the full
// escrowed gross amount. The reported spend breakdown is logged for audit and
// deliberately never balanced against the gross: payout variance is borne
// off-system so that burned totals always reconcile against minted supply.
func (s *Service) FinalizeWithdrawal(
	ctx context.Context, caller string, id uint64,
	userReceive, minerFee, operatorFee uint64,
	settlementTxID string, settlementVout uint32,
) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityWithdrawal); err != nil {
		return err
	}
	if err := s.requireActive(ctx); err != nil {
		return err
	}

	withdrawal, err := s.repoManager.Withdrawals().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := withdrawal.Finalize(userReceive, minerFee, operatorFee, settlementTxID, settlementVout); err != nil {
		return err
	}

	// Commit the processed mark before burning so a retry can never burn twice.
	if err := s.repoManager.Withdrawals().Update(ctx, *withdrawal); err != nil {
		return err
	}
	if err := s.ledger.Destroy(ctx, s.escrowAccount, withdrawal.BurnedAmount); err != nil {
		logrus.WithError(err).WithField("id", id).
			Error("withdrawal finalized but escrow burn failed, manual reconciliation required")
		return fmt.Errorf("withdrawal %d finalized but burn failed: %w", id, err)
	}

	logrus.WithFields(logrus.Fields{
		"id":             id,
		"caller":         caller,
		"burned":         withdrawal.BurnedAmount,
		"spendTotal":     userReceive + minerFee + operatorFee,
		"userReceive":    userReceive,
		"minerFee":       minerFee,
		"operatorFee":    operatorFee,
		"settlementTxid": settlementTxID,
		"settlementVout": settlementVout,
	}).Info("withdrawal finalized")
	return nil
}

// CancelWithdrawal lets the original requester reclaim the full escrowed
// amount of a pending, unlocked withdrawal. No fee is collected.
func (s *Service) CancelWithdrawal(ctx context.Context, caller string, id uint64) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireActive(ctx); err != nil {
		return err
	}

	withdrawal, err := s.repoManager.Withdrawals().Get(ctx, id)
	if err != nil {
		return err
	}
	refund, err := withdrawal.Cancel(caller)
	if err != nil {
		return err
	}

	// Commit the processed mark before refunding so a retry can never refund twice.
	if err := s.repoManager.Withdrawals().Update(ctx, *withdrawal); err != nil {
		return err
	}
	if err := s.ledger.Move(ctx, s.escrowAccount, withdrawal.Requester, refund); err != nil {
		logrus.WithError(err).WithField("id", id).
			Error("withdrawal cancelled but refund failed, manual reconciliation required")
		return fmt.Errorf("withdrawal %d cancelled but refund failed: %w", id, err)
	}

	logrus.WithFields(logrus.Fields{"id": id, "requester": caller, "refund": refund}).
		Info("withdrawal cancelled")
	return nil
}

func (s *Service) GetWithdrawal(ctx context.Context, id uint64) (*domain.Withdrawal, error) {
	return s.repoManager.Withdrawals().Get(ctx, id)
}

func (s *Service) ListWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	return s.repoManager.Withdrawals().GetAll(ctx)
}

// IsWithdrawalInFlight reports whether the record is locked and unprocessed.
func (s *Service) IsWithdrawalInFlight(ctx context.Context, id uint64) (bool, error) {
	withdrawal, err := s.repoManager.Withdrawals().Get(ctx, id)
	if err != nil {
		return false, err
	}
	return withdrawal.InFlight(), nil
}

func (s *Service) IsWithdrawalProcessed(ctx context.Context, id uint64) (bool, error) {
	withdrawal, err := s.repoManager.Withdrawals().Get(ctx, id)
	if err != nil {
		return false, err
	}
	return withdrawal.Processed, nil
}

func (s *Service) GetDeposit(ctx context.Context, txid string, vout uint32) (*domain.Deposit, error) {
	return s.repoManager.Deposits().Get(ctx, domain.DepositID(txid, vout))
}

func (s *Service) IsDepositUsed(ctx context.Context, txid string, vout uint32) (bool, error) {
	return s.repoManager.Deposits().Contains(ctx, domain.DepositID(txid, vout))
}

func (s *Service) ListDeposits(ctx context.Context) ([]domain.Deposit, error) {
	return s.repoManager.Deposits().GetAll(ctx)
}

func (s *Service) AddCustodyAddress(ctx context.Context, caller, address string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityCustody); err != nil {
		return err
	}
	if err := s.requireActive(ctx); err != nil {
		return err
	}
	if err := domain.ValidateAddress(address); err != nil {
		return err
	}
	if err := s.repoManager.CustodyAddresses().Add(ctx, address); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"address": address, "caller": caller}).Info("custody address added")
	return nil
}

// RemoveCustodyAddress removes the address at index by swapping it with the
// last entry and shrinking the list. It returns the removed address.
func (s *Service) RemoveCustodyAddress(ctx context.Context, caller string, index int) (string, error) {
	if err := s.begin(); err != nil {
		return "", err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityCustody); err != nil {
		return "", err
	}
	if err := s.requireActive(ctx); err != nil {
		return "", err
	}
	removed, err := s.repoManager.CustodyAddresses().Remove(ctx, index)
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{"address": removed, "index": index, "caller": caller}).
		Info("custody address removed")
	return removed, nil
}

func (s *Service) CustodyAddresses(ctx context.Context) ([]string, error) {
	return s.repoManager.CustodyAddresses().List(ctx)
}

func (s *Service) CustodyAddressCount(ctx context.Context) (int, error) {
	return s.repoManager.CustodyAddresses().Count(ctx)
}

// GrantCapability grants a capability to an account. Capability management is
// admin-only and exempt from the global halt so an incident can be managed
// while the bridge is paused.
func (s *Service) GrantCapability(ctx context.Context, caller, account string, capability domain.Capability) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityAdmin); err != nil {
		return err
	}
	if account == "" || !capability.Valid() {
		return fmt.Errorf("%w: unknown capability %q", domain.ErrInvalidInput, capability)
	}
	before, err := s.repoManager.Access().Grants(ctx, account)
	if err != nil {
		return err
	}
	if err := s.repoManager.Access().Grant(ctx, account, capability); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"account": account, "capability": capability, "caller": caller, "before": before,
	}).Info("capability granted")
	return nil
}

func (s *Service) RevokeCapability(ctx context.Context, caller, account string, capability domain.Capability) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityAdmin); err != nil {
		return err
	}
	if account == "" || !capability.Valid() {
		return fmt.Errorf("%w: unknown capability %q", domain.ErrInvalidInput, capability)
	}
	before, err := s.repoManager.Access().Grants(ctx, account)
	if err != nil {
		return err
	}
	if err := s.repoManager.Access().Revoke(ctx, account, capability); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"account": account, "capability": capability, "caller": caller, "before": before,
	}).Info("capability revoked")
	return nil
}

func (s *Service) AccountCapabilities(ctx context.Context, account string) ([]domain.Capability, error) {
	return s.repoManager.Access().Grants(ctx, account)
}

// Halt blocks all non-administrative mutations. It requires the pause
// capability; resuming requires admin, so pause privilege does not imply
// resume.
func (s *Service) Halt(ctx context.Context, caller string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityPause); err != nil {
		return err
	}
	if err := s.repoManager.Access().SetHalted(ctx, true); err != nil {
		return err
	}
	logrus.WithField("caller", caller).Warn("bridge halted")
	return nil
}

func (s *Service) Resume(ctx context.Context, caller string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityAdmin); err != nil {
		return err
	}
	if err := s.repoManager.Access().SetHalted(ctx, false); err != nil {
		return err
	}
	logrus.WithField("caller", caller).Warn("bridge resumed")
	return nil
}

func (s *Service) Halted(ctx context.Context) (bool, error) {
	return s.repoManager.Access().Halted(ctx)
}

func (s *Service) Settings(ctx context.Context) (*domain.Settings, error) {
	return s.repoManager.Settings().GetSettings(ctx)
}

// SetFeeRecipient changes the account credited with deposit fees. Admin-only,
// exempt from the halt.
func (s *Service) SetFeeRecipient(ctx context.Context, caller, account string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityAdmin); err != nil {
		return err
	}
	settings, err := s.repoManager.Settings().GetSettings(ctx)
	if err != nil {
		return err
	}
	before := settings.FeeRecipient
	settings.FeeRecipient = account
	if err := s.repoManager.Settings().UpdateSettings(ctx, *settings); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"caller": caller, "before": before, "after": account}).
		Info("fee recipient updated")
	return nil
}

// SetFeePolicy updates the stored flat fee amounts. The static fee calculator
// resolves them at call time, so the change takes effect immediately.
func (s *Service) SetFeePolicy(ctx context.Context, caller string, depositFeeSats, withdrawalFeeSats uint64) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityAdmin); err != nil {
		return err
	}
	settings, err := s.repoManager.Settings().GetSettings(ctx)
	if err != nil {
		return err
	}
	before := *settings
	settings.DepositFeeSats = depositFeeSats
	settings.WithdrawalFeeSats = withdrawalFeeSats
	if err := s.repoManager.Settings().UpdateSettings(ctx, *settings); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"caller":            caller,
		"depositFeeBefore":  before.DepositFeeSats,
		"depositFee":        depositFeeSats,
		"withdrawFeeBefore": before.WithdrawalFeeSats,
		"withdrawFee":       withdrawalFeeSats,
	}).Info("fee policy updated")
	return nil
}

// SetApprovalOracle swaps the deposit approval oracle. A nil oracle clears the
// slot, meaning deposits are approved unconditionally. Admin-only, exempt from
// the halt.
func (s *Service) SetApprovalOracle(ctx context.Context, caller string, oracle ports.DepositApprovalOracle, oracleURL string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.requireCapability(ctx, caller, domain.CapabilityAdmin); err != nil {
		return err
	}
	settings, err := s.repoManager.Settings().GetSettings(ctx)
	if err != nil {
		return err
	}
	before := settings.OracleURL
	settings.OracleURL = oracleURL
	if err := s.repoManager.Settings().UpdateSettings(ctx, *settings); err != nil {
		return err
	}
	s.oracle = oracle
	logrus.WithFields(logrus.Fields{"caller": caller, "before": before, "after": oracleURL}).
		Info("approval oracle updated")
	return nil
}
