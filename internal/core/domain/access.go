package domain

import "context"

// Capability is an independently grantable permission checked by every
// operator-facing entry point.
type Capability string

const (
	// CapabilityAdmin manages grants, runtime settings and resume.
	CapabilityAdmin Capability = "admin"
	// CapabilityCustody manages the custody address registry.
	CapabilityCustody Capability = "custody"
	// CapabilityDeposit confirms inbound deposits.
	CapabilityDeposit Capability = "deposit"
	// CapabilityWithdrawal locks, unlocks and finalizes withdrawals.
	CapabilityWithdrawal Capability = "withdrawal"
	// CapabilityPause triggers the global halt. Resuming requires
	// CapabilityAdmin, so pause privilege does not imply resume.
	CapabilityPause Capability = "pause"
)

// Valid reports whether c is one of the known capabilities.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityAdmin, CapabilityCustody, CapabilityDeposit, CapabilityWithdrawal, CapabilityPause:
		return true
	}
	return false
}

// AccessRepository stores capability grants and the global halt flag.
type AccessRepository interface {
	Grant(ctx context.Context, account string, capability Capability) error
	Revoke(ctx context.Context, account string, capability Capability) error
	Has(ctx context.Context, account string, capability Capability) (bool, error)
	Grants(ctx context.Context, account string) ([]Capability, error)
	SetHalted(ctx context.Context, halted bool) error
	Halted(ctx context.Context) (bool, error)
	Close()
}
