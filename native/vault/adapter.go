package vault

import "math/big"

// Adapter is the uniform capability wrapping one external yield source. The
// ledger only ever talks to the active adapter through this interface; the
// rate conversion from each source's native representation into basis points
// is the adapter's responsibility.
type Adapter interface {
	// Name identifies the wrapped source for events and diagnostics.
	Name() string
	// Deposit moves amount of the pooled asset into the external source.
	// Source-specific failures (illiquidity, paused source) propagate as
	// errors and abort the caller's operation.
	Deposit(amount *big.Int) error
	// Withdraw moves amount back out of the source. Implementations must
	// fail loudly when the source cannot fully honour the request; partial
	// fills are never returned.
	Withdraw(amount *big.Int) error
	// Balance reports the current value held in the source, in pooled-asset
	// units, including any yield the source has already realised.
	Balance() (*big.Int, error)
	// APYBps reports the source's current annualised rate in basis points.
	APYBps() (uint64, error)
	// EmergencyWithdraw pulls everything out of the source regardless of
	// normal accounting and returns the recovered amount. The ledger gates
	// this behind its owner check.
	EmergencyWithdraw() (*big.Int, error)
}
