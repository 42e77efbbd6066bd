package adapters

import (
	"errors"
	"math/big"
	"sync"
)

var errInsufficientLiquidity = errors.New("yield adapter: source cannot honour withdrawal")

// MemoryMarket is an in-process CompoundSource with an operator-settable
// per-block rate. It backs standalone deployments that have no live market
// client configured, and doubles as a deterministic source in tests.
type MemoryMarket struct {
	mu           sync.Mutex
	balance      *big.Int
	ratePerBlock *big.Int
}

// NewMemoryMarket constructs a market holding nothing, earning nothing.
func NewMemoryMarket() *MemoryMarket {
	return &MemoryMarket{balance: big.NewInt(0), ratePerBlock: big.NewInt(0)}
}

// SetSupplyRatePerBlock overrides the 1e18-scaled per-block rate.
func (m *MemoryMarket) SetSupplyRatePerBlock(rate *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratePerBlock = new(big.Int).Set(rate)
}

// Accrue credits yield directly onto the held balance.
func (m *MemoryMarket) Accrue(amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance.Add(m.balance, amount)
}

func (m *MemoryMarket) Mint(amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance.Add(m.balance, amount)
	return nil
}

func (m *MemoryMarket) Redeem(amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance.Cmp(amount) < 0 {
		return errInsufficientLiquidity
	}
	m.balance.Sub(m.balance, amount)
	return nil
}

func (m *MemoryMarket) BalanceOfUnderlying() (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.balance), nil
}

func (m *MemoryMarket) SupplyRatePerBlock() (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.ratePerBlock), nil
}

// MemoryPool is an in-process AaveSource with an operator-settable
// ray-scaled liquidity rate.
type MemoryPool struct {
	mu      sync.Mutex
	balance *big.Int
	rate    *big.Int
}

// NewMemoryPool constructs an empty pool with a zero rate.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{balance: big.NewInt(0), rate: big.NewInt(0)}
}

// SetLiquidityRate overrides the 1e27-scaled annual rate.
func (p *MemoryPool) SetLiquidityRate(rate *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = new(big.Int).Set(rate)
}

// Accrue credits yield directly onto the aToken balance.
func (p *MemoryPool) Accrue(amount *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance.Add(p.balance, amount)
}

func (p *MemoryPool) Supply(amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance.Add(p.balance, amount)
	return nil
}

func (p *MemoryPool) Withdraw(amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balance.Cmp(amount) < 0 {
		return errInsufficientLiquidity
	}
	p.balance.Sub(p.balance, amount)
	return nil
}

func (p *MemoryPool) ATokenBalance() (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.balance), nil
}

func (p *MemoryPool) CurrentLiquidityRate() (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.rate), nil
}

// MemoryKinkedPool is an in-process KinkedSource whose totals the operator
// moves to drive the utilisation curve.
type MemoryKinkedPool struct {
	mu       sync.Mutex
	balance  *big.Int
	borrowed *big.Int
	supplied *big.Int
}

// NewMemoryKinkedPool constructs an empty pool with zero utilisation.
func NewMemoryKinkedPool() *MemoryKinkedPool {
	return &MemoryKinkedPool{
		balance:  big.NewInt(0),
		borrowed: big.NewInt(0),
		supplied: big.NewInt(0),
	}
}

// SetTotals overrides the pool-wide borrow and supply totals.
func (p *MemoryKinkedPool) SetTotals(borrowed, supplied *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.borrowed = new(big.Int).Set(borrowed)
	p.supplied = new(big.Int).Set(supplied)
}

// Accrue credits yield directly onto the held balance.
func (p *MemoryKinkedPool) Accrue(amount *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance.Add(p.balance, amount)
}

func (p *MemoryKinkedPool) Join(amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance.Add(p.balance, amount)
	p.supplied.Add(p.supplied, amount)
	return nil
}

func (p *MemoryKinkedPool) Exit(amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balance.Cmp(amount) < 0 {
		return errInsufficientLiquidity
	}
	p.balance.Sub(p.balance, amount)
	if p.supplied.Cmp(amount) >= 0 {
		p.supplied.Sub(p.supplied, amount)
	}
	return nil
}

func (p *MemoryKinkedPool) Balance() (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.balance), nil
}

func (p *MemoryKinkedPool) PoolTotals() (*big.Int, *big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.borrowed), new(big.Int).Set(p.supplied), nil
}
