package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"yieldvault/core/types"
	"yieldvault/crypto"
	"yieldvault/native/session"
	"yieldvault/native/vault"
	"yieldvault/storage"
)

func testAddr(t *testing.T, b byte) crypto.Address {
	t.Helper()
	buf := make([]byte, 20)
	buf[19] = b
	addr, err := crypto.NewAddress(crypto.VaultPrefix, buf)
	require.NoError(t, err)
	return addr
}

func TestVaultStateRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	loaded, err := manager.GetVault("main")
	require.NoError(t, err)
	require.Nil(t, loaded, "missing vault must load as nil")

	original := &vault.VaultState{
		Name:             "Test Vault",
		Asset:            "USDY",
		TotalShares:      big.NewInt(123_456),
		TotalPrincipal:   big.NewInt(120_000),
		ActiveSource:     2,
		LastReallocation: 99,
		Paused:           true,
	}
	require.NoError(t, manager.PutVault("main", original))

	loaded, err = manager.GetVault("main")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, original.Name, loaded.Name)
	require.Equal(t, original.Asset, loaded.Asset)
	require.Zero(t, original.TotalShares.Cmp(loaded.TotalShares))
	require.Zero(t, original.TotalPrincipal.Cmp(loaded.TotalPrincipal))
	require.Equal(t, original.ActiveSource, loaded.ActiveSource)
	require.Equal(t, original.LastReallocation, loaded.LastReallocation)
	require.True(t, loaded.Paused)

	// Distinct vault IDs do not collide.
	other, err := manager.GetVault("other")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestPositionRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddr(t, 0x0a)

	loaded, err := manager.GetPosition("main", addr)
	require.NoError(t, err)
	require.Nil(t, loaded)

	original := &vault.Position{
		Address:   addr,
		Shares:    big.NewInt(777),
		Principal: big.NewInt(700),
	}
	require.NoError(t, manager.PutPosition("main", original))

	loaded, err = manager.GetPosition("main", addr)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, addr.String(), loaded.Address.String())
	require.Zero(t, loaded.Shares.Cmp(big.NewInt(777)))
	require.Zero(t, loaded.Principal.Cmp(big.NewInt(700)))

	// Positions are scoped per vault.
	other, err := manager.GetPosition("other", addr)
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestAccountRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddr(t, 0x0b)

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Nil(t, loaded)

	require.NoError(t, manager.PutAccount(addr, &types.Account{Nonce: 4, Balance: big.NewInt(5_000)}))

	loaded, err = manager.GetAccount(addr)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, uint64(4), loaded.Nonce)
	require.Zero(t, loaded.Balance.Cmp(big.NewInt(5_000)))
}

func TestGrantRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	granter := testAddr(t, 0x01)
	sessionKey := testAddr(t, 0x02)
	target := testAddr(t, 0x03)
	selector := [4]byte{0xde, 0xad, 0xbe, 0xef}
	keyID := session.DeriveKeyID(granter, sessionKey, target, selector, 100, 200)

	loaded, err := manager.GetGrant(keyID)
	require.NoError(t, err)
	require.Nil(t, loaded)

	original := &session.Grant{
		KeyID:            keyID,
		Granter:          granter,
		SessionKey:       sessionKey,
		Target:           target,
		FunctionSelector: selector,
		ValueLimit:       big.NewInt(10),
		MaxTransactions:  50,
		TransactionCount: 7,
		ValidAfter:       100,
		ValidUntil:       200,
		Active:           true,
		CreatedAt:        90,
	}
	require.NoError(t, manager.PutGrant(original))

	loaded, err = manager.GetGrant(keyID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, keyID, loaded.KeyID)
	require.Equal(t, granter.String(), loaded.Granter.String())
	require.Equal(t, sessionKey.String(), loaded.SessionKey.String())
	require.Equal(t, target.String(), loaded.Target.String())
	require.Equal(t, selector, loaded.FunctionSelector)
	require.Zero(t, loaded.ValueLimit.Cmp(big.NewInt(10)))
	require.Equal(t, uint64(50), loaded.MaxTransactions)
	require.Equal(t, uint64(7), loaded.TransactionCount)
	require.True(t, loaded.Active)

	// Overwrite flips usage state in place.
	loaded.TransactionCount = 8
	loaded.Active = false
	require.NoError(t, manager.PutGrant(loaded))

	loaded, err = manager.GetGrant(keyID)
	require.NoError(t, err)
	require.Equal(t, uint64(8), loaded.TransactionCount)
	require.False(t, loaded.Active)
}

func TestGrantIndexAppends(t *testing.T) {
	manager := NewManager(storage.NewMemDB())

	index, err := manager.GrantIndex()
	require.NoError(t, err)
	require.Empty(t, index)

	var first, second [32]byte
	first[0] = 0x01
	second[0] = 0x02
	require.NoError(t, manager.AppendGrantIndex(first))
	require.NoError(t, manager.AppendGrantIndex(second))

	index, err = manager.GrantIndex()
	require.NoError(t, err)
	require.Len(t, index, 2)
	require.Equal(t, first, index[0])
	require.Equal(t, second, index[1])
}

func TestManagerSatisfiesEngineInterfaces(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	owner := testAddr(t, 0x01)
	module := testAddr(t, 0x02)

	engine := vault.NewEngine(owner, module, "main", "Test Vault", "USDY")
	engine.SetState(manager)

	registry := session.NewRegistry(owner)
	registry.SetState(manager)

	// The engine reads through the manager end to end.
	require.NoError(t, manager.PutAccount(testAddr(t, 0x0a), &types.Account{Balance: big.NewInt(100)}))
	shares, err := engine.SharesOf(testAddr(t, 0x0a))
	require.NoError(t, err)
	require.Zero(t, shares.Sign())

	// The registry writes through the manager end to end.
	selector := [4]byte{0x01, 0x02, 0x03, 0x04}
	keyID, err := registry.Grant(owner, testAddr(t, 0x0b), module, selector, big.NewInt(0), 0, 0, 0)
	require.NoError(t, err)
	grant, err := registry.Get(keyID)
	require.NoError(t, err)
	require.True(t, grant.Active)
}
