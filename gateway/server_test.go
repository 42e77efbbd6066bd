package gateway

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"yieldvault/core/state"
	"yieldvault/core/types"
	"yieldvault/crypto"
	"yieldvault/native/session"
	"yieldvault/native/vault"
	"yieldvault/native/vault/adapters"
	"yieldvault/storage"
)

type testHarness struct {
	server    *httptest.Server
	manager   *state.Manager
	owner     crypto.Address
	target    crypto.Address
	depositor crypto.Address
}

func testAddr(t *testing.T, b byte) crypto.Address {
	t.Helper()
	buf := make([]byte, 20)
	buf[19] = b
	addr, err := crypto.NewAddress(crypto.VaultPrefix, buf)
	require.NoError(t, err)
	return addr
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	owner := testAddr(t, 0x01)
	target := testAddr(t, 0x02)
	depositor := testAddr(t, 0x0a)

	engine := vault.NewEngine(owner, target, "main", "Test Vault", "USDY")
	engine.SetState(manager)
	require.NoError(t, engine.SetAdapter(owner, 0, adapters.NewCompound("compound", adapters.NewMemoryMarket())))
	require.NoError(t, engine.SetAdapter(owner, 1, adapters.NewAave("aave", adapters.NewMemoryPool())))

	registry := session.NewRegistry(owner)
	registry.SetState(manager)

	srv := New(Config{Engine: engine, Registry: registry, Owner: owner, Target: target})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	require.NoError(t, manager.PutAccount(depositor, &types.Account{Balance: big.NewInt(100_000)}))

	return &testHarness{
		server:    ts,
		manager:   manager,
		owner:     owner,
		target:    target,
		depositor: depositor,
	}
}

func (h *testHarness) post(t *testing.T, path string, payload interface{}) (*http.Response, map[string]string) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(h.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (h *testHarness) get(t *testing.T, path string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(h.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func (h *testHarness) deposit(t *testing.T, amount string) {
	t.Helper()
	resp, _ := h.post(t, "/v1/vault/deposit", map[string]string{
		"from":   h.depositor.String(),
		"amount": amount,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDepositAndStatus(t *testing.T) {
	h := newHarness(t)
	resp, body := h.post(t, "/v1/vault/deposit", map[string]string{
		"from":   h.depositor.String(),
		"amount": "1000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "1000", body["sharesMinted"])

	var status vaultStatusResponse
	h.get(t, "/v1/vault/", &status)
	require.Equal(t, "1000", status.TotalAssets)
	require.Equal(t, "1000", status.TotalPrincipal)
	require.Equal(t, uint8(0), status.ActiveSource)
	require.False(t, status.Paused)
}

func TestDepositRejectsBadInput(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.post(t, "/v1/vault/deposit", map[string]string{
		"from":   "not-an-address",
		"amount": "100",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.post(t, "/v1/vault/deposit", map[string]string{
		"from":   h.depositor.String(),
		"amount": "abc",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.post(t, "/v1/vault/deposit", map[string]string{
		"from":   h.depositor.String(),
		"amount": "0",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Overdraft maps to 422.
	resp, _ = h.post(t, "/v1/vault/deposit", map[string]string{
		"from":   h.depositor.String(),
		"amount": "999999999",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestWithdraw(t *testing.T) {
	h := newHarness(t)
	h.deposit(t, "1000")

	resp, body := h.post(t, "/v1/vault/withdraw", map[string]string{
		"owner":  h.depositor.String(),
		"amount": "400",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "400", body["sharesBurned"])

	var position positionResponse
	h.get(t, "/v1/vault/position/"+h.depositor.String(), &position)
	require.Equal(t, "600", position.Shares)
	require.Equal(t, "600", position.Principal)
}

func TestReallocateAsOwner(t *testing.T) {
	h := newHarness(t)
	h.deposit(t, "1000")

	resp, body := h.post(t, "/v1/vault/reallocate", map[string]interface{}{
		"caller":  h.owner.String(),
		"target":  1,
		"gainBps": 50,
		"costBps": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "1000", body["moved"])

	var status vaultStatusResponse
	h.get(t, "/v1/vault/", &status)
	require.Equal(t, uint8(1), status.ActiveSource)
}

func TestReallocateGateRejections(t *testing.T) {
	h := newHarness(t)
	h.deposit(t, "1000")

	resp, _ := h.post(t, "/v1/vault/reallocate", map[string]interface{}{
		"caller":  h.owner.String(),
		"target":  1,
		"gainBps": 20,
		"costBps": 5,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = h.post(t, "/v1/vault/reallocate", map[string]interface{}{
		"caller":  h.owner.String(),
		"target":  1,
		"gainBps": 50,
		"costBps": 15,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestReallocateRejectsStrangers(t *testing.T) {
	h := newHarness(t)
	h.deposit(t, "1000")

	resp, _ := h.post(t, "/v1/vault/reallocate", map[string]interface{}{
		"caller":  h.depositor.String(),
		"target":  1,
		"gainBps": 50,
		"costBps": 5,
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessionReallocateFlow(t *testing.T) {
	h := newHarness(t)
	h.deposit(t, "1000")

	agentKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	agent := agentKey.PubKey().Address()

	// The owner grants the agent a reallocation capability.
	resp, body := h.post(t, "/v1/session/grants", map[string]interface{}{
		"granter":    h.owner.String(),
		"sessionKey": agent.String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	keyID := body["keyId"]
	require.Len(t, keyID, 64)

	// The agent signs the canonical reallocation message and submits it.
	digest := ReallocationDigest("main", 1, 50, 5, "nonce-1")
	sig, err := agentKey.Sign(digest[:])
	require.NoError(t, err)

	resp, body = h.post(t, "/v1/vault/reallocate", map[string]interface{}{
		"target":    1,
		"gainBps":   50,
		"costBps":   5,
		"keyId":     keyID,
		"nonce":     "nonce-1",
		"signature": hex.EncodeToString(sig),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "1000", body["moved"])

	// The grant records the use.
	var grant grantResponse
	h.get(t, "/v1/session/grants/"+keyID, &grant)
	require.Equal(t, uint64(1), grant.TransactionCount)
}

func TestSessionReallocateRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	h.deposit(t, "1000")

	agentKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	agent := agentKey.PubKey().Address()

	_, body := h.post(t, "/v1/session/grants", map[string]interface{}{
		"granter":    h.owner.String(),
		"sessionKey": agent.String(),
	})
	keyID := body["keyId"]

	// Signature covers different parameters than the request carries.
	digest := ReallocationDigest("main", 1, 500, 5, "nonce-1")
	sig, err := agentKey.Sign(digest[:])
	require.NoError(t, err)

	resp, _ := h.post(t, "/v1/vault/reallocate", map[string]interface{}{
		"target":    1,
		"gainBps":   50,
		"costBps":   5,
		"keyId":     keyID,
		"nonce":     "nonce-1",
		"signature": hex.EncodeToString(sig),
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessionRevocationIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.deposit(t, "1000")

	agentKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	agent := agentKey.PubKey().Address()

	_, body := h.post(t, "/v1/session/grants", map[string]interface{}{
		"granter":    h.owner.String(),
		"sessionKey": agent.String(),
	})
	keyID := body["keyId"]

	// Revoke through the API.
	payload, err := json.Marshal(map[string]string{"caller": h.owner.String()})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodDelete, h.server.URL+"/v1/session/grants/"+keyID, bytes.NewReader(payload))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	digest := ReallocationDigest("main", 1, 50, 5, "nonce-1")
	sig, err := agentKey.Sign(digest[:])
	require.NoError(t, err)

	resp, _ = h.post(t, "/v1/vault/reallocate", map[string]interface{}{
		"target":    1,
		"gainBps":   50,
		"costBps":   5,
		"keyId":     keyID,
		"nonce":     "nonce-1",
		"signature": hex.EncodeToString(sig),
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetGrantNotFound(t *testing.T) {
	h := newHarness(t)
	missing := fmt.Sprintf("%064x", 42)
	resp, err := http.Get(h.server.URL + "/v1/session/grants/" + missing)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPYEndpoints(t *testing.T) {
	h := newHarness(t)

	var apy map[string]uint64
	resp := h.get(t, "/v1/vault/apy", &apy)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.get(t, "/v1/vault/apy/1", &apy)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := http.Get(h.server.URL + "/v1/vault/apy/7")
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusBadRequest, raw.StatusCode)
}
