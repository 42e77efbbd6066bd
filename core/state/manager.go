// Package state persists vault accounting and session grants in a key-value
// store. Records are RLP encoded; the manager satisfies the state interfaces
// both the vault engine and the session registry declare.
package state

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"yieldvault/core/types"
	"yieldvault/crypto"
	"yieldvault/native/session"
	"yieldvault/native/vault"
	"yieldvault/storage"
)

// Manager mediates every read and write against the backing database.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

// NewManager constructs a manager bound to the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, raw)
}

// --- vault engine state ---

type storedVaultState struct {
	Name             string
	Asset            string
	TotalShares      *big.Int
	TotalPrincipal   *big.Int
	ActiveSource     uint8
	LastReallocation uint64
	Paused           bool
}

// GetVault loads the vault accounting record, or nil when absent.
func (m *Manager) GetVault(vaultID string) (*vault.VaultState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored storedVaultState
	found, err := m.get(vaultStateKey(vaultID), &stored)
	if err != nil || !found {
		return nil, err
	}
	v := &vault.VaultState{
		Name:             stored.Name,
		Asset:            stored.Asset,
		TotalShares:      stored.TotalShares,
		TotalPrincipal:   stored.TotalPrincipal,
		ActiveSource:     stored.ActiveSource,
		LastReallocation: stored.LastReallocation,
		Paused:           stored.Paused,
	}
	v.EnsureDefaults()
	return v, nil
}

// PutVault writes the vault accounting record.
func (m *Manager) PutVault(vaultID string, v *vault.VaultState) error {
	if v == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v.EnsureDefaults()
	stored := storedVaultState{
		Name:             v.Name,
		Asset:            v.Asset,
		TotalShares:      v.TotalShares,
		TotalPrincipal:   v.TotalPrincipal,
		ActiveSource:     v.ActiveSource,
		LastReallocation: v.LastReallocation,
		Paused:           v.Paused,
	}
	return m.put(vaultStateKey(vaultID), &stored)
}

type storedPosition struct {
	Addr      [20]byte
	Prefix    string
	Shares    *big.Int
	Principal *big.Int
}

// GetPosition loads a depositor position, or nil when absent.
func (m *Manager) GetPosition(vaultID string, addr crypto.Address) (*vault.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored storedPosition
	found, err := m.get(vaultPositionKey(vaultID, addr.Bytes()), &stored)
	if err != nil || !found {
		return nil, err
	}
	decoded, err := crypto.NewAddress(crypto.AddressPrefix(stored.Prefix), stored.Addr[:])
	if err != nil {
		return nil, err
	}
	p := &vault.Position{
		Address:   decoded,
		Shares:    stored.Shares,
		Principal: stored.Principal,
	}
	p.EnsureDefaults()
	return p, nil
}

// PutPosition writes a depositor position.
func (m *Manager) PutPosition(vaultID string, p *vault.Position) error {
	if p == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.EnsureDefaults()
	stored := storedPosition{
		Prefix:    string(p.Address.Prefix()),
		Shares:    p.Shares,
		Principal: p.Principal,
	}
	copy(stored.Addr[:], p.Address.Bytes())
	return m.put(vaultPositionKey(vaultID, p.Address.Bytes()), &stored)
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads a stable-asset account, or nil when absent.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored storedAccount
	found, err := m.get(accountKey(addr.Bytes()), &stored)
	if err != nil || !found {
		return nil, err
	}
	acc := &types.Account{Nonce: stored.Nonce, Balance: stored.Balance}
	acc.EnsureDefaults()
	return acc, nil
}

// PutAccount writes a stable-asset account.
func (m *Manager) PutAccount(addr crypto.Address, acc *types.Account) error {
	if acc == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc.EnsureDefaults()
	stored := storedAccount{Nonce: acc.Nonce, Balance: acc.Balance}
	return m.put(accountKey(addr.Bytes()), &stored)
}

// --- session registry state ---

type storedGrant struct {
	KeyID            [32]byte
	Granter          [20]byte
	GranterPrefix    string
	SessionKey       [20]byte
	SessionKeyPrefix string
	Target           [20]byte
	TargetPrefix     string
	FunctionSelector [4]byte
	ValueLimit       *big.Int
	MaxTransactions  uint64
	TransactionCount uint64
	ValidAfter       uint64
	ValidUntil       uint64
	Active           bool
	CreatedAt        uint64
}

// GetGrant loads a capability grant, or nil when absent.
func (m *Manager) GetGrant(keyID [32]byte) (*session.Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored storedGrant
	found, err := m.get(grantKey(keyID), &stored)
	if err != nil || !found {
		return nil, err
	}
	granter, err := crypto.NewAddress(crypto.AddressPrefix(stored.GranterPrefix), stored.Granter[:])
	if err != nil {
		return nil, err
	}
	sessionKey, err := crypto.NewAddress(crypto.AddressPrefix(stored.SessionKeyPrefix), stored.SessionKey[:])
	if err != nil {
		return nil, err
	}
	target, err := crypto.NewAddress(crypto.AddressPrefix(stored.TargetPrefix), stored.Target[:])
	if err != nil {
		return nil, err
	}
	grant := &session.Grant{
		KeyID:            stored.KeyID,
		Granter:          granter,
		SessionKey:       sessionKey,
		Target:           target,
		FunctionSelector: stored.FunctionSelector,
		ValueLimit:       stored.ValueLimit,
		MaxTransactions:  stored.MaxTransactions,
		TransactionCount: stored.TransactionCount,
		ValidAfter:       stored.ValidAfter,
		ValidUntil:       stored.ValidUntil,
		Active:           stored.Active,
		CreatedAt:        stored.CreatedAt,
	}
	grant.EnsureDefaults()
	return grant, nil
}

// PutGrant writes a capability grant. Grants are append-only from the
// registry's perspective; this overwrite path only ever flips usage counters
// and the active flag.
func (m *Manager) PutGrant(grant *session.Grant) error {
	if grant == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	grant.EnsureDefaults()
	stored := storedGrant{
		KeyID:            grant.KeyID,
		GranterPrefix:    string(grant.Granter.Prefix()),
		SessionKeyPrefix: string(grant.SessionKey.Prefix()),
		TargetPrefix:     string(grant.Target.Prefix()),
		FunctionSelector: grant.FunctionSelector,
		ValueLimit:       grant.ValueLimit,
		MaxTransactions:  grant.MaxTransactions,
		TransactionCount: grant.TransactionCount,
		ValidAfter:       grant.ValidAfter,
		ValidUntil:       grant.ValidUntil,
		Active:           grant.Active,
		CreatedAt:        grant.CreatedAt,
	}
	copy(stored.Granter[:], grant.Granter.Bytes())
	copy(stored.SessionKey[:], grant.SessionKey.Bytes())
	copy(stored.Target[:], grant.Target.Bytes())
	return m.put(grantKey(grant.KeyID), &stored)
}

// AppendGrantIndex records the keyID in the ordered grant log used for
// auditing. Entries are never removed.
func (m *Manager) AppendGrantIndex(keyID [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var index [][32]byte
	if _, err := m.get(grantIndexKey, &index); err != nil {
		return err
	}
	index = append(index, keyID)
	return m.put(grantIndexKey, index)
}

// GrantIndex returns the ordered log of every grant ever recorded.
func (m *Manager) GrantIndex() ([][32]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var index [][32]byte
	if _, err := m.get(grantIndexKey, &index); err != nil {
		return nil, err
	}
	return index, nil
}
