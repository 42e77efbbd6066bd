// Package adapters provides the yield-source adapter variants the vault
// ledger dispatches over. Each variant wraps one external source client and
// converts that source's native rate representation into basis points.
package adapters

import (
	"errors"
	"math/big"
)

var (
	errNilSource    = errors.New("yield adapter: source not configured")
	errNilAmount    = errors.New("yield adapter: amount must be positive")
	basisPoints     = big.NewInt(10_000)
	wad             = big.NewInt(1_000_000_000_000_000_000)
	blocksPerYearBI = big.NewInt(blocksPerYear)
)

const blocksPerYear = 2_628_000

// CompoundSource models the cToken-style market the compound adapter wraps.
type CompoundSource interface {
	Mint(amount *big.Int) error
	Redeem(amount *big.Int) error
	BalanceOfUnderlying() (*big.Int, error)
	// SupplyRatePerBlock reports the per-block supply rate scaled by 1e18.
	SupplyRatePerBlock() (*big.Int, error)
}

// Compound wraps a cToken-style market. Rate conversion: the source reports a
// per-block supply rate scaled by 1e18; the adapter annualises it over
// blocksPerYear and rescales to basis points, truncating:
//
//	apyBps = ratePerBlock * blocksPerYear * 10_000 / 1e18
type Compound struct {
	name   string
	source CompoundSource
}

// NewCompound constructs a compound-style adapter around the given market.
func NewCompound(name string, source CompoundSource) *Compound {
	return &Compound{name: name, source: source}
}

// Name identifies the wrapped market.
func (c *Compound) Name() string { return c.name }

// Deposit mints into the market. Source failures propagate unchanged.
func (c *Compound) Deposit(amount *big.Int) error {
	if c == nil || c.source == nil {
		return errNilSource
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNilAmount
	}
	return c.source.Mint(amount)
}

// Withdraw redeems underlying from the market. The market either honours the
// full amount or errors; partial fills never happen here.
func (c *Compound) Withdraw(amount *big.Int) error {
	if c == nil || c.source == nil {
		return errNilSource
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNilAmount
	}
	return c.source.Redeem(amount)
}

// Balance reports the underlying value held in the market, yield included.
func (c *Compound) Balance() (*big.Int, error) {
	if c == nil || c.source == nil {
		return nil, errNilSource
	}
	bal, err := c.source.BalanceOfUnderlying()
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

// APYBps annualises the market's per-block rate into basis points.
func (c *Compound) APYBps() (uint64, error) {
	if c == nil || c.source == nil {
		return 0, errNilSource
	}
	rate, err := c.source.SupplyRatePerBlock()
	if err != nil {
		return 0, err
	}
	if rate == nil || rate.Sign() <= 0 {
		return 0, nil
	}
	annual := new(big.Int).Mul(rate, blocksPerYearBI)
	annual.Mul(annual, basisPoints)
	annual.Quo(annual, wad)
	return annual.Uint64(), nil
}

// EmergencyWithdraw redeems the full underlying balance and returns it.
func (c *Compound) EmergencyWithdraw() (*big.Int, error) {
	if c == nil || c.source == nil {
		return nil, errNilSource
	}
	bal, err := c.source.BalanceOfUnderlying()
	if err != nil {
		return nil, err
	}
	if bal == nil || bal.Sign() == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int).Set(bal)
	if err := c.source.Redeem(amount); err != nil {
		return nil, err
	}
	return amount, nil
}
