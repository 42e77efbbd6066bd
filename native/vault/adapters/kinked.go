package adapters

import "math/big"

// KinkedSource models a lending pool that exposes its raw totals instead of a
// finished rate. The adapter derives the rate itself.
type KinkedSource interface {
	Join(amount *big.Int) error
	Exit(amount *big.Int) error
	Balance() (*big.Int, error)
	// PoolTotals reports the pool's outstanding borrows and total supplied
	// liquidity, in pooled-asset units.
	PoolTotals() (borrowed, supplied *big.Int, err error)
}

// Kinked wraps a pool whose rate must be computed from utilisation. Rate
// conversion: the adapter reads the pool totals, evaluates the kinked rate
// model (base/slope1/slope2/kink, decimal APR) for the supply side and
// truncates the result to basis points:
//
//	apyBps = floor(supplyAPR * 10_000)
type Kinked struct {
	name   string
	source KinkedSource
	model  *RateModel
}

// NewKinked constructs a utilisation-driven adapter around the given pool.
func NewKinked(name string, source KinkedSource, model *RateModel) *Kinked {
	return &Kinked{name: name, source: source, model: model.Clone()}
}

// Name identifies the wrapped pool.
func (k *Kinked) Name() string { return k.name }

// Deposit joins the pool. Source failures propagate unchanged.
func (k *Kinked) Deposit(amount *big.Int) error {
	if k == nil || k.source == nil {
		return errNilSource
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNilAmount
	}
	return k.source.Join(amount)
}

// Withdraw exits the pool, failing loudly on shortfall.
func (k *Kinked) Withdraw(amount *big.Int) error {
	if k == nil || k.source == nil {
		return errNilSource
	}
	if amount == nil || amount.Sign() <= 0 {
		return errNilAmount
	}
	return k.source.Exit(amount)
}

// Balance reports the value held in the pool, yield included.
func (k *Kinked) Balance() (*big.Int, error) {
	if k == nil || k.source == nil {
		return nil, errNilSource
	}
	bal, err := k.source.Balance()
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

// APYBps evaluates the kinked model against the pool's current totals.
func (k *Kinked) APYBps() (uint64, error) {
	if k == nil || k.source == nil {
		return 0, errNilSource
	}
	if k.model == nil {
		return 0, nil
	}
	borrowed, supplied, err := k.source.PoolTotals()
	if err != nil {
		return 0, err
	}
	return ratToBps(k.model.SupplyAPR(borrowed, supplied)), nil
}

// EmergencyWithdraw exits the full pool balance and returns it.
func (k *Kinked) EmergencyWithdraw() (*big.Int, error) {
	if k == nil || k.source == nil {
		return nil, errNilSource
	}
	bal, err := k.source.Balance()
	if err != nil {
		return nil, err
	}
	if bal == nil || bal.Sign() == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int).Set(bal)
	if err := k.source.Exit(amount); err != nil {
		return nil, err
	}
	return amount, nil
}
