package session

import (
	"math/big"
	"sync/atomic"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"yieldvault/core/events"
	"yieldvault/crypto"
)

type registryState interface {
	GetGrant(keyID [32]byte) (*Grant, error)
	PutGrant(grant *Grant) error
	AppendGrantIndex(keyID [32]byte) error
}

// Registry stores capability grants and answers validation queries. It is the
// only place grant usage is recorded: callers must validate before acting on
// the result, never after. The registry never calls into the vault ledger and
// holds no lock shared with it.
type Registry struct {
	state         registryState
	owner         crypto.Address
	emitter       events.Emitter
	nowFn         func() int64
	defaultWindow uint64
	defaultBudget uint64
	entered       atomic.Bool
}

// NewRegistry constructs a registry whose privileged owner may revoke any
// grant.
func NewRegistry(owner crypto.Address) *Registry {
	return &Registry{
		owner:         owner,
		emitter:       events.NoopEmitter{},
		nowFn:         func() int64 { return time.Now().Unix() },
		defaultWindow: DefaultWindowSeconds,
		defaultBudget: DefaultTxBudget,
	}
}

// SetDefaults overrides the fallback validity window and transaction budget
// applied to grants that omit them. Zero values keep the package defaults.
func (r *Registry) SetDefaults(windowSeconds, txBudget uint64) {
	if r == nil {
		return
	}
	if windowSeconds > 0 {
		r.defaultWindow = windowSeconds
	}
	if txBudget > 0 {
		r.defaultBudget = txBudget
	}
}

// SetState wires the registry to the external persistence layer.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if r == nil {
		return
	}
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the clock, primarily for tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if r == nil || now == nil {
		return
	}
	r.nowFn = now
}

func (r *Registry) enter() error {
	if !r.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (r *Registry) exit() { r.entered.Store(false) }

// Grant records a new capability and returns its derived keyID. A zero
// maxTransactions falls back to DefaultTxBudget; a zero window falls back to
// now..now+DefaultWindowSeconds.
func (r *Registry) Grant(granter, sessionKey, target crypto.Address, selector [4]byte, valueLimit *big.Int, maxTransactions, validAfter, validUntil uint64) ([32]byte, error) {
	var zero [32]byte
	if r == nil || r.state == nil {
		return zero, ErrNilState
	}
	if err := r.enter(); err != nil {
		return zero, err
	}
	defer r.exit()

	if sessionKey.IsZero() {
		return zero, ErrInvalidSessionKey
	}
	if target.IsZero() {
		return zero, ErrInvalidTarget
	}

	now := uint64(r.nowFn())
	if validAfter == 0 && validUntil == 0 {
		validAfter = now
		validUntil = now + r.defaultWindow
	}
	if validUntil <= validAfter {
		return zero, ErrInvalidWindow
	}
	if validUntil < now {
		return zero, ErrInvalidWindow
	}
	if maxTransactions == 0 {
		maxTransactions = r.defaultBudget
	}
	if valueLimit == nil {
		valueLimit = big.NewInt(0)
	}

	keyID := DeriveKeyID(granter, sessionKey, target, selector, validAfter, validUntil)
	existing, err := r.state.GetGrant(keyID)
	if err != nil {
		return zero, err
	}
	if existing != nil {
		return zero, ErrDuplicateGrant
	}

	grant := &Grant{
		KeyID:            keyID,
		Granter:          granter,
		SessionKey:       sessionKey,
		Target:           target,
		FunctionSelector: selector,
		ValueLimit:       new(big.Int).Set(valueLimit),
		MaxTransactions:  maxTransactions,
		ValidAfter:       validAfter,
		ValidUntil:       validUntil,
		Active:           true,
		CreatedAt:        now,
	}
	if err := r.state.PutGrant(grant); err != nil {
		return zero, err
	}
	if err := r.state.AppendGrantIndex(keyID); err != nil {
		return zero, err
	}

	r.emit(events.SessionGranted{
		KeyID:      keyID,
		Granter:    granter,
		SessionKey: sessionKey,
		Target:     target,
		ValidAfter: validAfter,
		ValidUntil: validUntil,
		MaxTxs:     maxTransactions,
	})
	return keyID, nil
}

// Validate checks a proposed use of the grant, in a fixed order with one
// sentinel per failure, and records the use on full success. A failed
// validation leaves the usage counter unchanged.
func (r *Registry) Validate(keyID [32]byte, target crypto.Address, selector [4]byte, value *big.Int, signature []byte, messageHash [32]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	if err := r.enter(); err != nil {
		return err
	}
	defer r.exit()

	grant, err := r.state.GetGrant(keyID)
	if err != nil {
		return err
	}
	if grant == nil {
		return ErrKeyNotFound
	}
	grant.EnsureDefaults()

	if !grant.Active {
		return ErrKeyNotActive
	}
	now := uint64(r.nowFn())
	if now < grant.ValidAfter {
		return ErrKeyNotYetValid
	}
	if now > grant.ValidUntil {
		return ErrKeyExpired
	}
	if grant.TransactionCount >= grant.MaxTransactions {
		return ErrTxLimitExceeded
	}
	if value == nil {
		value = big.NewInt(0)
	}
	if value.Cmp(grant.ValueLimit) > 0 {
		return ErrValueLimitExceeded
	}
	if !target.Equal(grant.Target) {
		return ErrUnauthorizedTarget
	}
	if selector != grant.FunctionSelector {
		return ErrUnauthorizedFunction
	}
	if err := verifySessionSignature(grant.SessionKey, signature, messageHash); err != nil {
		return err
	}

	grant.TransactionCount++
	if err := r.state.PutGrant(grant); err != nil {
		return err
	}
	r.emit(events.SessionUsed{
		KeyID:   keyID,
		TxCount: grant.TransactionCount,
		MaxTxs:  grant.MaxTransactions,
	})
	return nil
}

// Revoke deactivates a grant. Only the original granter or the registry owner
// may call it. Revoking an already-revoked or already-expired grant is a
// no-op, not an error.
func (r *Registry) Revoke(caller crypto.Address, keyID [32]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	if err := r.enter(); err != nil {
		return err
	}
	defer r.exit()

	grant, err := r.state.GetGrant(keyID)
	if err != nil {
		return err
	}
	if grant == nil {
		return ErrKeyNotFound
	}
	if !caller.Equal(grant.Granter) && !caller.Equal(r.owner) {
		return ErrUnauthorized
	}
	if !grant.Active {
		return nil
	}
	grant.Active = false
	if err := r.state.PutGrant(grant); err != nil {
		return err
	}
	r.emit(events.SessionRevoked{KeyID: keyID, Revoker: caller})
	return nil
}

// Grant fetchers are read-only and never mutate usage counters.

// Get returns a copy of the stored grant, if any.
func (r *Registry) Get(keyID [32]byte) (*Grant, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	grant, err := r.state.GetGrant(keyID)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, ErrKeyNotFound
	}
	grant.EnsureDefaults()
	return grant.Clone(), nil
}

func (r *Registry) emit(event events.Event) {
	if r == nil || r.emitter == nil {
		return
	}
	r.emitter.Emit(event)
}

func verifySessionSignature(sessionKey crypto.Address, signature []byte, messageHash [32]byte) error {
	if len(signature) != 65 {
		return ErrInvalidSignature
	}
	pub, err := ethcrypto.SigToPub(messageHash[:], signature)
	if err != nil {
		return ErrInvalidSignature
	}
	recovered := ethcrypto.PubkeyToAddress(*pub).Bytes()
	expected := sessionKey.Bytes()
	if len(recovered) != len(expected) {
		return ErrInvalidSignature
	}
	for i := range recovered {
		if recovered[i] != expected[i] {
			return ErrInvalidSignature
		}
	}
	return nil
}
