package adapters

import "math/big"

var ray = new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)

// AaveSource models the liquidity-pool client the aave adapter wraps.
type AaveSource interface {
	Supply(amount *big.Int) error
	Withdraw(amount *big.Int) error
	ATokenBalance() (*big.Int, error)
	// CurrentLiquidityRate reports the annualised liquidity rate scaled by
	// 1e27 (ray).
	CurrentLiquidityRate() (*big.Int, error)
}

// Aave wraps an aave-style liquidity pool. Rate conversion: the source already
// reports an annual rate, ray-scaled (1e27); the adapter only rescales it to
// basis points, truncating:
//
//	apyBps = liquidityRate * 10_000 / 1e27
type Aave struct {
	name   string
	source AaveSource
}

// NewAave constructs an aave-style adapter around the given pool.
func NewAave(name string, source AaveSource) *Aave {
	return &Aave{name: name, source: source}
}

// Name identifies the wrapped pool.
func (a *Aave) Name() string { return a.name }

// Deposit supplies liquidity into the pool. Source failures propagate
// unchanged.
func (a *Aave) Deposit(amount *big.Int) error {
	if a == nil || a.source == nil {
		return errNilSource
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNilAmount
	}
	return a.source.Supply(amount)
}

// Withdraw pulls liquidity back out of the pool, failing loudly on shortfall.
func (a *Aave) Withdraw(amount *big.Int) error {
	if a == nil || a.source == nil {
		return errNilSource
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNilAmount
	}
	return a.source.Withdraw(amount)
}

// Balance reports the aToken balance, which rebases to include accrued yield.
func (a *Aave) Balance() (*big.Int, error) {
	if a == nil || a.source == nil {
		return nil, errNilSource
	}
	bal, err := a.source.ATokenBalance()
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

// APYBps rescales the pool's ray-denominated annual rate to basis points.
func (a *Aave) APYBps() (uint64, error) {
	if a == nil || a.source == nil {
		return 0, errNilSource
	}
	rate, err := a.source.CurrentLiquidityRate()
	if err != nil {
		return 0, err
	}
	if rate == nil || rate.Sign() <= 0 {
		return 0, nil
	}
	bps := new(big.Int).Mul(rate, basisPoints)
	bps.Quo(bps, ray)
	return bps.Uint64(), nil
}

// EmergencyWithdraw drains the full aToken balance and returns it.
func (a *Aave) EmergencyWithdraw() (*big.Int, error) {
	if a == nil || a.source == nil {
		return nil, errNilSource
	}
	bal, err := a.source.ATokenBalance()
	if err != nil {
		return nil, err
	}
	if bal == nil || bal.Sign() == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int).Set(bal)
	if err := a.source.Withdraw(amount); err != nil {
		return nil, err
	}
	return amount, nil
}
