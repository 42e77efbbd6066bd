package vault

// MaxSources is the number of adapter slots configured per vault.
const MaxSources = 3

const (
	// DefaultMinGainBps is the minimum expected gain, in basis points, a
	// reallocation proposal must clear.
	DefaultMinGainBps uint64 = 30
	// DefaultMaxCostBps is the maximum expected cost, in basis points, a
	// reallocation proposal may carry.
	DefaultMaxCostBps uint64 = 10
)

// Thresholds groups the reallocation gate limits. The gate enforces these on
// caller-supplied economics; it never recomputes gain or cost from adapter
// rates.
type Thresholds struct {
	MinGainBps uint64
	MaxCostBps uint64
}

// DefaultThresholds returns the stock gate limits.
func DefaultThresholds() Thresholds {
	return Thresholds{MinGainBps: DefaultMinGainBps, MaxCostBps: DefaultMaxCostBps}
}
