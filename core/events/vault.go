package events

import (
	"math/big"

	"yieldvault/core/types"
	"yieldvault/crypto"
)

const (
	// TypeVaultDeposited captures share minting triggered by a deposit.
	TypeVaultDeposited = "vault.deposited"
	// TypeVaultWithdrawn captures share burning triggered by a withdrawal.
	TypeVaultWithdrawn = "vault.withdrawn"
	// TypeVaultYieldRealized surfaces the yield component of a withdrawal.
	TypeVaultYieldRealized = "vault.yieldRealized"
	// TypeVaultReallocated is emitted when the pooled balance moves between
	// yield sources.
	TypeVaultReallocated = "vault.reallocated"
	// TypeVaultPaused is emitted when the owner toggles the pause flag.
	TypeVaultPaused = "vault.paused"
	// TypeVaultAdapterUpdated is emitted when the owner rebinds a source slot.
	TypeVaultAdapterUpdated = "vault.adapterUpdated"
	// TypeVaultEmergencyWithdrawal records an owner-triggered escape hatch
	// pull from a yield source.
	TypeVaultEmergencyWithdrawal = "vault.emergencyWithdrawal"
)

// VaultDeposited captures the share delta realised when depositing.
type VaultDeposited struct {
	Receiver     crypto.Address
	Amount       *big.Int
	SharesMinted *big.Int
	TotalShares  *big.Int
	SourceID     uint8
}

// EventType satisfies the Event interface.
func (VaultDeposited) EventType() string { return TypeVaultDeposited }

// Event converts the structured payload into a broadcastable event.
func (e VaultDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultDeposited,
		Attributes: map[string]string{
			"receiver":     e.Receiver.String(),
			"amount":       formatAmount(e.Amount),
			"sharesMinted": formatAmount(e.SharesMinted),
			"totalShares":  formatAmount(e.TotalShares),
			"sourceId":     formatUint(uint64(e.SourceID)),
		},
	}
}

// VaultWithdrawn captures the share delta realised when withdrawing.
type VaultWithdrawn struct {
	Owner        crypto.Address
	Receiver     crypto.Address
	Amount       *big.Int
	SharesBurned *big.Int
	TotalShares  *big.Int
}

// EventType satisfies the Event interface.
func (VaultWithdrawn) EventType() string { return TypeVaultWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e VaultWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultWithdrawn,
		Attributes: map[string]string{
			"owner":        e.Owner.String(),
			"receiver":     e.Receiver.String(),
			"amount":       formatAmount(e.Amount),
			"sharesBurned": formatAmount(e.SharesBurned),
			"totalShares":  formatAmount(e.TotalShares),
		},
	}
}

// VaultYieldRealized reports the yield component observed after a withdrawal
// reduced a depositor's position.
type VaultYieldRealized struct {
	Owner crypto.Address
	Yield *big.Int
}

// EventType satisfies the Event interface.
func (VaultYieldRealized) EventType() string { return TypeVaultYieldRealized }

// Event converts the structured payload into a broadcastable event.
func (e VaultYieldRealized) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultYieldRealized,
		Attributes: map[string]string{
			"owner": e.Owner.String(),
			"yield": formatAmount(e.Yield),
		},
	}
}

// VaultReallocated records an atomic full-balance move between yield sources.
type VaultReallocated struct {
	FromSource uint8
	ToSource   uint8
	GainBps    uint64
	Amount     *big.Int
	Marker     uint64
}

// EventType satisfies the Event interface.
func (VaultReallocated) EventType() string { return TypeVaultReallocated }

// Event converts the structured payload into a broadcastable event.
func (e VaultReallocated) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultReallocated,
		Attributes: map[string]string{
			"fromSource": formatUint(uint64(e.FromSource)),
			"toSource":   formatUint(uint64(e.ToSource)),
			"gainBps":    formatUint(e.GainBps),
			"amount":     formatAmount(e.Amount),
			"marker":     formatUint(e.Marker),
		},
	}
}

// VaultPaused records a pause flag toggle.
type VaultPaused struct {
	Paused bool
}

// EventType satisfies the Event interface.
func (VaultPaused) EventType() string { return TypeVaultPaused }

// Event converts the structured payload into a broadcastable event.
func (e VaultPaused) Event() *types.Event {
	paused := "false"
	if e.Paused {
		paused = "true"
	}
	return &types.Event{
		Type:       TypeVaultPaused,
		Attributes: map[string]string{"paused": paused},
	}
}

// VaultAdapterUpdated records an owner rebinding a source slot.
type VaultAdapterUpdated struct {
	SourceID uint8
	Name     string
}

// EventType satisfies the Event interface.
func (VaultAdapterUpdated) EventType() string { return TypeVaultAdapterUpdated }

// Event converts the structured payload into a broadcastable event.
func (e VaultAdapterUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultAdapterUpdated,
		Attributes: map[string]string{
			"sourceId": formatUint(uint64(e.SourceID)),
			"name":     e.Name,
		},
	}
}

// VaultEmergencyWithdrawal records an escape-hatch pull from a source.
type VaultEmergencyWithdrawal struct {
	SourceID uint8
	Amount   *big.Int
}

// EventType satisfies the Event interface.
func (VaultEmergencyWithdrawal) EventType() string { return TypeVaultEmergencyWithdrawal }

// Event converts the structured payload into a broadcastable event.
func (e VaultEmergencyWithdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypeVaultEmergencyWithdrawal,
		Attributes: map[string]string{
			"sourceId": formatUint(uint64(e.SourceID)),
			"amount":   formatAmount(e.Amount),
		},
	}
}
