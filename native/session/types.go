package session

import (
	"math/big"

	"yieldvault/crypto"
)

const (
	// DefaultWindowSeconds is the grant validity window applied when the
	// granter does not supply one: 24 hours.
	DefaultWindowSeconds uint64 = 24 * 60 * 60
	// DefaultTxBudget is the transaction budget applied when the granter
	// does not supply one.
	DefaultTxBudget uint64 = 1000
)

// Grant authorises one session key to invoke one function on one target,
// inside an inclusive time window, under a value limit and a transaction
// budget. Grants are append-only: revocation flips Active and nothing is ever
// physically deleted, so the audit history survives.
type Grant struct {
	// KeyID is derived from the grant parameters; two grants with identical
	// parameters collide by design.
	KeyID [32]byte
	// Granter is the address the grant was created on behalf of. Only the
	// granter or the registry owner may revoke it.
	Granter crypto.Address
	// SessionKey is the identity allowed to use this grant.
	SessionKey crypto.Address
	// Target is the single contract the grant authorises. No wildcards.
	Target crypto.Address
	// FunctionSelector is the single function the grant authorises.
	FunctionSelector [4]byte
	// ValueLimit caps the value transferable per use. Zero for pure-logic
	// calls.
	ValueLimit *big.Int
	// MaxTransactions is the usage budget; TransactionCount is the running
	// counter incremented on every successful validation.
	MaxTransactions  uint64
	TransactionCount uint64
	// ValidAfter and ValidUntil bound the usable window, inclusive, in unix
	// seconds. Expiry is a passive time comparison, never a stored state
	// change.
	ValidAfter uint64
	ValidUntil uint64
	// Active is set false on revocation.
	Active bool
	// CreatedAt records when the grant was written, in unix seconds.
	CreatedAt uint64
}

// EnsureDefaults normalises nil pointers on freshly decoded grants.
func (g *Grant) EnsureDefaults() {
	if g == nil {
		return
	}
	if g.ValueLimit == nil {
		g.ValueLimit = big.NewInt(0)
	}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (g *Grant) Clone() *Grant {
	if g == nil {
		return nil
	}
	clone := *g
	if g.ValueLimit != nil {
		clone.ValueLimit = new(big.Int).Set(g.ValueLimit)
	}
	return &clone
}
