package vault

import (
	"math/big"

	"yieldvault/core/events"
	"yieldvault/core/types"
	"yieldvault/crypto"
)

type engineState interface {
	GetVault(vaultID string) (*VaultState, error)
	PutVault(vaultID string, vault *VaultState) error
	GetPosition(vaultID string, addr crypto.Address) (*Position, error)
	PutPosition(vaultID string, position *Position) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Engine orchestrates the share accounting, principal tracking and
// reallocation gate for a single vault. Every mutating entry point holds a
// reentrancy guard for its duration and commits either all of its effects or
// none of them.
type Engine struct {
	state         engineState
	owner         crypto.Address
	moduleAddress crypto.Address
	vaultID       string
	name          string
	asset         string
	adapters      [MaxSources]Adapter
	thresholds    Thresholds
	blockHeight   uint64
	emitter       events.Emitter
	guard         reentrancyGuard
}

// NewEngine constructs a vault engine bound to the pooled asset symbol and a
// human-readable name. The owner address gates every privileged operation.
func NewEngine(owner, moduleAddr crypto.Address, vaultID, name, asset string) *Engine {
	return &Engine{
		owner:         owner,
		moduleAddress: moduleAddr,
		vaultID:       vaultID,
		name:          name,
		asset:         asset,
		thresholds:    DefaultThresholds(),
		emitter:       events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetThresholds overrides the reallocation gate limits. Zero fields fall back
// to the defaults.
func (e *Engine) SetThresholds(t Thresholds) {
	if e == nil {
		return
	}
	if t.MinGainBps == 0 {
		t.MinGainBps = DefaultMinGainBps
	}
	if t.MaxCostBps == 0 {
		t.MaxCostBps = DefaultMaxCostBps
	}
	e.thresholds = t
}

// SetBlockHeight records the height used for the reallocation marker.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

// VaultID returns the identifier the engine operates against.
func (e *Engine) VaultID() string {
	if e == nil {
		return ""
	}
	return e.vaultID
}

// Owner returns the privileged owner address.
func (e *Engine) Owner() crypto.Address {
	if e == nil {
		return crypto.Address{}
	}
	return e.owner
}

// SetAdapter rebinds a source slot. Owner only; the reference must be live.
func (e *Engine) SetAdapter(caller crypto.Address, sourceID uint8, adapter Adapter) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if !caller.Equal(e.owner) {
		return ErrUnauthorized
	}
	if sourceID >= MaxSources || adapter == nil {
		return ErrInvalidAdapter
	}
	e.adapters[sourceID] = adapter
	e.emit(events.VaultAdapterUpdated{SourceID: sourceID, Name: adapter.Name()})
	return nil
}

// Adapter returns the adapter bound to the given slot, if any.
func (e *Engine) Adapter(sourceID uint8) Adapter {
	if e == nil || sourceID >= MaxSources {
		return nil
	}
	return e.adapters[sourceID]
}

// Deposit converts amount of the pooled asset into shares credited to the
// receiver. Principal tracking is yield-blind: it records what was put in,
// not what it is worth. The minted share amount is returned.
func (e *Engine) Deposit(from crypto.Address, amount *big.Int, receiver crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.exit()

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if receiver.IsZero() {
		return nil, ErrInvalidReceiver
	}

	vault, err := e.ensureVault()
	if err != nil {
		return nil, err
	}
	if vault.Paused {
		return nil, ErrPaused
	}

	adapter := e.adapters[vault.ActiveSource]
	if adapter == nil {
		return nil, ErrInvalidAdapter
	}

	totalAssets, err := e.totalAssets(adapter)
	if err != nil {
		return nil, err
	}

	// First deposit bootstraps 1:1; afterwards shares price in accrued yield.
	minted := new(big.Int)
	if vault.TotalShares.Sign() == 0 {
		minted.Set(amount)
	} else {
		if totalAssets.Sign() == 0 {
			return nil, ErrSharesUnbacked
		}
		minted.Mul(amount, vault.TotalShares)
		minted.Quo(minted, totalAssets)
	}
	if minted.Sign() == 0 {
		return nil, ErrInvalidAmount
	}

	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return nil, err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}

	// Forward the full amount into the active source before recording
	// anything. A rejected source deposit aborts the whole call.
	if err := adapter.Deposit(amount); err != nil {
		return nil, err
	}

	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return nil, err
	}

	position, err := e.ensurePosition(receiver)
	if err != nil {
		return nil, err
	}
	position.Shares = new(big.Int).Add(position.Shares, minted)
	position.Principal = new(big.Int).Add(position.Principal, amount)

	vault.TotalShares = new(big.Int).Add(vault.TotalShares, minted)
	vault.TotalPrincipal = new(big.Int).Add(vault.TotalPrincipal, amount)

	if err := e.state.PutPosition(e.vaultID, position); err != nil {
		return nil, err
	}
	if err := e.state.PutVault(e.vaultID, vault); err != nil {
		return nil, err
	}

	e.emit(events.VaultDeposited{
		Receiver:     receiver,
		Amount:       new(big.Int).Set(amount),
		SharesMinted: new(big.Int).Set(minted),
		TotalShares:  new(big.Int).Set(vault.TotalShares),
		SourceID:     vault.ActiveSource,
	})
	return minted, nil
}

// Withdraw burns the shares covering amount, reduces the owner's principal
// proportionally and pays the receiver. Withdrawals remain available while
// the vault is paused. The burned share amount is returned.
func (e *Engine) Withdraw(owner crypto.Address, amount *big.Int, receiver crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.exit()

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if receiver.IsZero() {
		return nil, ErrInvalidReceiver
	}

	vault, err := e.ensureVault()
	if err != nil {
		return nil, err
	}
	adapter := e.adapters[vault.ActiveSource]
	if adapter == nil {
		return nil, ErrInvalidAdapter
	}
	if vault.TotalShares.Sign() == 0 {
		return nil, ErrInsufficientShares
	}

	totalAssets, err := e.totalAssets(adapter)
	if err != nil {
		return nil, err
	}
	if totalAssets.Sign() == 0 {
		return nil, ErrInsufficientShares
	}

	// Shares round up so a withdrawer can never extract more value than the
	// shares they burn.
	toBurn := new(big.Int).Mul(amount, vault.TotalShares)
	toBurn.Add(toBurn, new(big.Int).Sub(totalAssets, big.NewInt(1)))
	toBurn.Quo(toBurn, totalAssets)

	position, err := e.state.GetPosition(e.vaultID, owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrInsufficientShares
	}
	position.EnsureDefaults()
	if position.Shares.Cmp(toBurn) < 0 {
		return nil, ErrInsufficientShares
	}
	sharesBefore := new(big.Int).Set(position.Shares)

	// Pull the assets out of the source first. Partial withdrawal is never
	// attempted; a source shortfall aborts the whole call.
	if err := adapter.Withdraw(amount); err != nil {
		return nil, err
	}

	// Principal shrinks by the same proportion as the burned shares, with
	// truncating division. When the position empties the residual dust is
	// zeroed so principal can never outlive shares.
	reduction := new(big.Int).Mul(position.Principal, toBurn)
	reduction.Quo(reduction, sharesBefore)

	position.Shares = new(big.Int).Sub(position.Shares, toBurn)
	position.Principal = new(big.Int).Sub(position.Principal, reduction)
	vault.TotalShares = new(big.Int).Sub(vault.TotalShares, toBurn)
	vault.TotalPrincipal = new(big.Int).Sub(vault.TotalPrincipal, reduction)
	if position.Shares.Sign() == 0 && position.Principal.Sign() > 0 {
		vault.TotalPrincipal = new(big.Int).Sub(vault.TotalPrincipal, position.Principal)
		position.Principal = big.NewInt(0)
	}

	receiverAcc, err := e.ensureAccount(receiver)
	if err != nil {
		return nil, err
	}
	receiverAcc.Balance = new(big.Int).Add(receiverAcc.Balance, amount)
	if err := e.state.PutAccount(receiver, receiverAcc); err != nil {
		return nil, err
	}

	if err := e.state.PutPosition(e.vaultID, position); err != nil {
		return nil, err
	}
	if err := e.state.PutVault(e.vaultID, vault); err != nil {
		return nil, err
	}

	yield, err := e.yieldEarned(vault, adapter, position)
	if err != nil {
		return nil, err
	}

	e.emit(events.VaultWithdrawn{
		Owner:        owner,
		Receiver:     receiver,
		Amount:       new(big.Int).Set(amount),
		SharesBurned: new(big.Int).Set(toBurn),
		TotalShares:  new(big.Int).Set(vault.TotalShares),
	})
	e.emit(events.VaultYieldRealized{Owner: owner, Yield: yield})

	return toBurn, nil
}

// Reallocate moves the entire pooled balance from the active source to the
// target source when the caller-supplied economics clear the gate. The gate
// deliberately trusts the caller's gain and cost figures; only the thresholds
// are enforced here. The moved amount is returned.
func (e *Engine) Reallocate(caller crypto.Address, targetID uint8, gainBps, costBps uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.exit()

	if !caller.Equal(e.owner) {
		return nil, ErrUnauthorized
	}

	vault, err := e.ensureVault()
	if err != nil {
		return nil, err
	}
	if vault.Paused {
		return nil, ErrPaused
	}
	if targetID >= MaxSources || e.adapters[targetID] == nil || targetID == vault.ActiveSource {
		return nil, ErrInvalidAdapter
	}
	current := e.adapters[vault.ActiveSource]
	if current == nil {
		return nil, ErrInvalidAdapter
	}

	// Gate checks, in order, each with its own failure signal.
	if gainBps < e.thresholds.MinGainBps {
		return nil, ErrInsufficientYieldGain
	}
	if costBps > e.thresholds.MaxCostBps {
		return nil, ErrGasCostTooHigh
	}
	totalAssets, err := e.totalAssets(current)
	if err != nil {
		return nil, err
	}
	if totalAssets.Sign() == 0 {
		return nil, ErrNoFundsToRebalance
	}

	amount, err := current.Balance()
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, ErrNoFundsToRebalance
	}

	target := e.adapters[targetID]
	if err := current.Withdraw(amount); err != nil {
		return nil, err
	}
	if err := target.Deposit(amount); err != nil {
		// Second leg failed: put the balance back so no funds are left
		// outside both sources. If even the restore fails the amount is
		// parked on the vault's idle account, which totalAssets() counts.
		if restoreErr := current.Deposit(amount); restoreErr != nil {
			if parkErr := e.creditIdle(amount); parkErr != nil {
				return nil, parkErr
			}
		}
		return nil, err
	}

	fromSource := vault.ActiveSource
	vault.ActiveSource = targetID
	if e.blockHeight > vault.LastReallocation {
		vault.LastReallocation = e.blockHeight
	}
	if err := e.state.PutVault(e.vaultID, vault); err != nil {
		return nil, err
	}

	e.emit(events.VaultReallocated{
		FromSource: fromSource,
		ToSource:   targetID,
		GainBps:    gainBps,
		Amount:     new(big.Int).Set(amount),
		Marker:     vault.LastReallocation,
	})
	return amount, nil
}

// EmergencyWithdraw drains the given source slot into the vault's idle
// balance for incident response. Owner only.
func (e *Engine) EmergencyWithdraw(caller crypto.Address, sourceID uint8) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.exit()

	if !caller.Equal(e.owner) {
		return nil, ErrUnauthorized
	}
	if sourceID >= MaxSources || e.adapters[sourceID] == nil {
		return nil, ErrInvalidAdapter
	}
	amount, err := e.adapters[sourceID].EmergencyWithdraw()
	if err != nil {
		return nil, err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() > 0 {
		if err := e.creditIdle(amount); err != nil {
			return nil, err
		}
	}
	e.emit(events.VaultEmergencyWithdrawal{SourceID: sourceID, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

// Pause blocks deposits and reallocation. Owner only.
func (e *Engine) Pause(caller crypto.Address) error {
	return e.setPaused(caller, true)
}

// Unpause re-enables deposits and reallocation. Owner only.
func (e *Engine) Unpause(caller crypto.Address) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller crypto.Address, paused bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	if !caller.Equal(e.owner) {
		return ErrUnauthorized
	}
	vault, err := e.ensureVault()
	if err != nil {
		return err
	}
	if vault.Paused == paused {
		return nil
	}
	vault.Paused = paused
	if err := e.state.PutVault(e.vaultID, vault); err != nil {
		return err
	}
	e.emit(events.VaultPaused{Paused: paused})
	return nil
}

// TotalAssets reports the idle balance held by the vault plus the balance the
// active source reports. This is the denominator for all share conversion.
func (e *Engine) TotalAssets() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return nil, err
	}
	adapter := e.adapters[vault.ActiveSource]
	if adapter == nil {
		return nil, ErrInvalidAdapter
	}
	return e.totalAssets(adapter)
}

// YieldEarned reports the user's current yield: the asset value of their
// shares minus their recorded principal, floored at zero. Pure read.
func (e *Engine) YieldEarned(user crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return nil, err
	}
	adapter := e.adapters[vault.ActiveSource]
	if adapter == nil {
		return nil, ErrInvalidAdapter
	}
	position, err := e.state.GetPosition(e.vaultID, user)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return big.NewInt(0), nil
	}
	position.EnsureDefaults()
	return e.yieldEarned(vault, adapter, position)
}

// SharesOf reports the user's outstanding shares.
func (e *Engine) SharesOf(user crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, err := e.state.GetPosition(e.vaultID, user)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return big.NewInt(0), nil
	}
	position.EnsureDefaults()
	return new(big.Int).Set(position.Shares), nil
}

// PrincipalOf reports the user's recorded principal.
func (e *Engine) PrincipalOf(user crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, err := e.state.GetPosition(e.vaultID, user)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return big.NewInt(0), nil
	}
	position.EnsureDefaults()
	return new(big.Int).Set(position.Principal), nil
}

// ConvertToAssets values the given shares at the current conversion rate.
func (e *Engine) ConvertToAssets(shares *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return nil, err
	}
	adapter := e.adapters[vault.ActiveSource]
	if adapter == nil {
		return nil, ErrInvalidAdapter
	}
	totalAssets, err := e.totalAssets(adapter)
	if err != nil {
		return nil, err
	}
	return convertToAssets(shares, vault.TotalShares, totalAssets), nil
}

// ConvertToShares prices the given asset amount in shares at the current
// conversion rate.
func (e *Engine) ConvertToShares(amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return nil, err
	}
	adapter := e.adapters[vault.ActiveSource]
	if adapter == nil {
		return nil, ErrInvalidAdapter
	}
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	if vault.TotalShares.Sign() == 0 {
		return new(big.Int).Set(amount), nil
	}
	totalAssets, err := e.totalAssets(adapter)
	if err != nil {
		return nil, err
	}
	if totalAssets.Sign() == 0 {
		return big.NewInt(0), nil
	}
	shares := new(big.Int).Mul(amount, vault.TotalShares)
	return shares.Quo(shares, totalAssets), nil
}

// CurrentAPY reports the active source's rate in basis points.
func (e *Engine) CurrentAPY() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return 0, err
	}
	return e.ProtocolAPY(vault.ActiveSource)
}

// ProtocolAPY reports the given source's rate in basis points.
func (e *Engine) ProtocolAPY(sourceID uint8) (uint64, error) {
	if e == nil {
		return 0, ErrNilState
	}
	if sourceID >= MaxSources || e.adapters[sourceID] == nil {
		return 0, ErrInvalidAdapter
	}
	return e.adapters[sourceID].APYBps()
}

// ActiveSource reports which slot currently holds the pooled balance.
func (e *Engine) ActiveSource() (uint8, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return 0, err
	}
	return vault.ActiveSource, nil
}

// Paused reports whether deposits and reallocation are blocked.
func (e *Engine) Paused() (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return false, err
	}
	return vault.Paused, nil
}

// LastReallocation reports the advisory marker recorded on the most recent
// successful reallocation.
func (e *Engine) LastReallocation() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return 0, err
	}
	return vault.LastReallocation, nil
}

// TotalPrincipal reports the running sum of every depositor's principal.
func (e *Engine) TotalPrincipal() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	vault, err := e.ensureVault()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(vault.TotalPrincipal), nil
}

func (e *Engine) ensureVault() (*VaultState, error) {
	vault, err := e.state.GetVault(e.vaultID)
	if err != nil {
		return nil, err
	}
	if vault == nil {
		vault = &VaultState{Name: e.name, Asset: e.asset}
	}
	vault.EnsureDefaults()
	return vault, nil
}

func (e *Engine) ensurePosition(addr crypto.Address) (*Position, error) {
	position, err := e.state.GetPosition(e.vaultID, addr)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = &Position{Address: addr}
	}
	position.EnsureDefaults()
	return position, nil
}

func (e *Engine) loadAccount(addr crypto.Address) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrInsufficientBalance
	}
	acc.EnsureDefaults()
	return acc, nil
}

func (e *Engine) ensureAccount(addr crypto.Address) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}

func (e *Engine) creditIdle(amount *big.Int) error {
	idle, err := e.ensureAccount(e.moduleAddress)
	if err != nil {
		return err
	}
	idle.Balance = new(big.Int).Add(idle.Balance, amount)
	return e.state.PutAccount(e.moduleAddress, idle)
}

func (e *Engine) totalAssets(adapter Adapter) (*big.Int, error) {
	idle, err := e.ensureAccount(e.moduleAddress)
	if err != nil {
		return nil, err
	}
	deployed, err := adapter.Balance()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(idle.Balance, deployed), nil
}

func (e *Engine) yieldEarned(vault *VaultState, adapter Adapter, position *Position) (*big.Int, error) {
	totalAssets, err := e.totalAssets(adapter)
	if err != nil {
		return nil, err
	}
	value := convertToAssets(position.Shares, vault.TotalShares, totalAssets)
	yield := new(big.Int).Sub(value, position.Principal)
	if yield.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return yield, nil
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func convertToAssets(shares, totalShares, totalAssets *big.Int) *big.Int {
	if shares == nil || shares.Sign() == 0 || totalShares == nil || totalShares.Sign() == 0 {
		return big.NewInt(0)
	}
	value := new(big.Int).Mul(shares, totalAssets)
	return value.Quo(value, totalShares)
}
