package vault

import (
	"math/big"

	"yieldvault/crypto"
)

// VaultState captures the global accounting state for a single vault. Amount
// values are denominated in the pooled asset's smallest unit and expressed as
// big integers to keep share math deterministic.
type VaultState struct {
	// Name is the human-readable label assigned at creation.
	Name string
	// Asset is the symbol of the pooled stable asset.
	Asset string
	// TotalShares is the number of outstanding claim units.
	TotalShares *big.Int
	// TotalPrincipal mirrors the sum of every depositor's recorded principal.
	TotalPrincipal *big.Int
	// ActiveSource identifies which adapter slot currently holds the pooled
	// balance. Exactly one slot is active at any time.
	ActiveSource uint8
	// LastReallocation is a monotonically non-decreasing marker recorded on
	// every successful reallocation. Advisory only.
	LastReallocation uint64
	// Paused blocks deposits and reallocation while set. Withdrawals stay
	// available so depositors are never locked in.
	Paused bool
}

// EnsureDefaults normalises nil big.Int pointers on freshly decoded state.
func (v *VaultState) EnsureDefaults() {
	if v == nil {
		return
	}
	if v.TotalShares == nil {
		v.TotalShares = big.NewInt(0)
	}
	if v.TotalPrincipal == nil {
		v.TotalPrincipal = big.NewInt(0)
	}
}

// Position maintains the vault position for an individual depositor. A
// position is created on first deposit and only ever reaches zero; it is never
// deleted.
type Position struct {
	// Address is the depositor's account identifier.
	Address crypto.Address
	// Shares is the depositor's outstanding claim units.
	Shares *big.Int
	// Principal records the raw amount deposited, blind to any yield the
	// shares have since accrued.
	Principal *big.Int
}

// EnsureDefaults normalises nil big.Int pointers on freshly decoded positions.
func (p *Position) EnsureDefaults() {
	if p == nil {
		return
	}
	if p.Shares == nil {
		p.Shares = big.NewInt(0)
	}
	if p.Principal == nil {
		p.Principal = big.NewInt(0)
	}
}
