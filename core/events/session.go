package events

import (
	"encoding/hex"

	"yieldvault/core/types"
	"yieldvault/crypto"
)

const (
	// TypeSessionGranted is emitted when a new session key grant is recorded.
	TypeSessionGranted = "session.granted"
	// TypeSessionUsed is emitted on every successful validation of a grant.
	TypeSessionUsed = "session.used"
	// TypeSessionRevoked is emitted when a grant is deactivated.
	TypeSessionRevoked = "session.revoked"
)

// SessionGranted captures the creation of a capability grant.
type SessionGranted struct {
	KeyID      [32]byte
	Granter    crypto.Address
	SessionKey crypto.Address
	Target     crypto.Address
	ValidAfter uint64
	ValidUntil uint64
	MaxTxs     uint64
}

// EventType satisfies the Event interface.
func (SessionGranted) EventType() string { return TypeSessionGranted }

// Event converts the structured payload into a broadcastable event.
func (e SessionGranted) Event() *types.Event {
	return &types.Event{
		Type: TypeSessionGranted,
		Attributes: map[string]string{
			"keyId":      hex.EncodeToString(e.KeyID[:]),
			"granter":    e.Granter.String(),
			"sessionKey": e.SessionKey.String(),
			"target":     e.Target.String(),
			"validAfter": formatUint(e.ValidAfter),
			"validUntil": formatUint(e.ValidUntil),
			"maxTxs":     formatUint(e.MaxTxs),
		},
	}
}

// SessionUsed captures a successful validation and the updated usage counter.
type SessionUsed struct {
	KeyID   [32]byte
	TxCount uint64
	MaxTxs  uint64
}

// EventType satisfies the Event interface.
func (SessionUsed) EventType() string { return TypeSessionUsed }

// Event converts the structured payload into a broadcastable event.
func (e SessionUsed) Event() *types.Event {
	return &types.Event{
		Type: TypeSessionUsed,
		Attributes: map[string]string{
			"keyId":   hex.EncodeToString(e.KeyID[:]),
			"txCount": formatUint(e.TxCount),
			"maxTxs":  formatUint(e.MaxTxs),
		},
	}
}

// SessionRevoked captures a grant deactivation.
type SessionRevoked struct {
	KeyID   [32]byte
	Revoker crypto.Address
}

// EventType satisfies the Event interface.
func (SessionRevoked) EventType() string { return TypeSessionRevoked }

// Event converts the structured payload into a broadcastable event.
func (e SessionRevoked) Event() *types.Event {
	return &types.Event{
		Type: TypeSessionRevoked,
		Attributes: map[string]string{
			"keyId":   hex.EncodeToString(e.KeyID[:]),
			"revoker": e.Revoker.String(),
		},
	}
}
