package adapters

import "math/big"

// RateModel encapsulates the kinked parameters that shape how a pool's supply
// rate reacts to utilisation.
type RateModel struct {
	// BaseRate is the minimum borrow APR applied when utilisation is zero.
	BaseRate *big.Rat
	// Slope1 is the borrow APR increase per unit of utilisation up to the
	// kink point.
	Slope1 *big.Rat
	// Slope2 governs the additional APR increase applied when utilisation
	// exceeds the kink point.
	Slope2 *big.Rat
	// Kink represents the utilisation ratio where the borrow rate slope
	// changes to encourage liquidity.
	Kink *big.Rat
}

// NewRateModel constructs a rate model from floating point inputs.
//
// The parameters should be provided as decimals, e.g. a 2% base rate is
// expressed as 0.02 and an 80% kink utilisation is 0.8.
func NewRateModel(baseRate, slope1, slope2, kink float64) *RateModel {
	model := &RateModel{
		BaseRate: new(big.Rat),
		Slope1:   new(big.Rat),
		Slope2:   new(big.Rat),
		Kink:     new(big.Rat),
	}
	model.BaseRate.SetFloat64(baseRate)
	model.Slope1.SetFloat64(slope1)
	model.Slope2.SetFloat64(slope2)
	model.Kink.SetFloat64(kink)
	return model
}

// Clone returns a deep copy of the rate model.
func (m *RateModel) Clone() *RateModel {
	if m == nil {
		return nil
	}
	clone := &RateModel{
		BaseRate: new(big.Rat),
		Slope1:   new(big.Rat),
		Slope2:   new(big.Rat),
		Kink:     new(big.Rat),
	}
	if m.BaseRate != nil {
		clone.BaseRate.Set(m.BaseRate)
	}
	if m.Slope1 != nil {
		clone.Slope1.Set(m.Slope1)
	}
	if m.Slope2 != nil {
		clone.Slope2.Set(m.Slope2)
	}
	if m.Kink != nil {
		clone.Kink.Set(m.Kink)
	}
	return clone
}

// Utilisation computes the pool utilisation ratio U = totalBorrowed /
// totalSupplied. When no liquidity exists the utilisation is defined as zero.
func (m *RateModel) Utilisation(totalBorrowed, totalSupplied *big.Int) *big.Rat {
	if totalBorrowed == nil || totalBorrowed.Sign() == 0 {
		return new(big.Rat)
	}
	if totalSupplied == nil || totalSupplied.Sign() == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(totalBorrowed, totalSupplied)
}

// BorrowAPR derives the dynamic borrow APR based on the current utilisation.
func (m *RateModel) BorrowAPR(totalBorrowed, totalSupplied *big.Int) *big.Rat {
	if m == nil {
		return new(big.Rat)
	}
	utilisation := m.Utilisation(totalBorrowed, totalSupplied)
	rate := new(big.Rat)
	if m.BaseRate != nil {
		rate.Set(m.BaseRate)
	}
	if utilisation.Sign() == 0 {
		return rate
	}
	kink := new(big.Rat)
	if m.Kink != nil {
		kink.Set(m.Kink)
	}
	if kink.Sign() == 0 || utilisation.Cmp(kink) <= 0 {
		if m.Slope1 != nil {
			segment := new(big.Rat).Mul(m.Slope1, utilisation)
			rate.Add(rate, segment)
		}
		return rate
	}
	if m.Slope1 != nil {
		segment := new(big.Rat).Mul(m.Slope1, kink)
		rate.Add(rate, segment)
	}
	if m.Slope2 != nil {
		excess := new(big.Rat).Sub(utilisation, kink)
		segment := new(big.Rat).Mul(m.Slope2, excess)
		rate.Add(rate, segment)
	}
	return rate
}

// SupplyAPR derives the rate passed through to suppliers: the borrow APR
// weighted by utilisation.
func (m *RateModel) SupplyAPR(totalBorrowed, totalSupplied *big.Int) *big.Rat {
	borrowAPR := m.BorrowAPR(totalBorrowed, totalSupplied)
	utilisation := m.Utilisation(totalBorrowed, totalSupplied)
	return new(big.Rat).Mul(borrowAPR, utilisation)
}

// DefaultRateModel provides a reasonable starting configuration featuring a
// kinked curve with a modest base rate.
var DefaultRateModel = NewRateModel(0.02, 0.15, 0.6, 0.8)

// ratToBps converts a decimal rate (e.g. 0.042) to basis points, truncating.
func ratToBps(rate *big.Rat) uint64 {
	if rate == nil || rate.Sign() <= 0 {
		return 0
	}
	scaled := new(big.Rat).Mul(rate, new(big.Rat).SetInt(basisPoints))
	out := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	return out.Uint64()
}
