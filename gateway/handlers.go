package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"yieldvault/crypto"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseAddress(raw string) (crypto.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return crypto.Address{}, errors.New("address required")
	}
	return crypto.DecodeAddress(trimmed)
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func parseKeyID(raw string) ([32]byte, error) {
	var keyID [32]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return keyID, fmt.Errorf("invalid keyId: %w", err)
	}
	if len(decoded) != 32 {
		return keyID, fmt.Errorf("keyId must be 32 bytes, got %d", len(decoded))
	}
	copy(keyID[:], decoded)
	return keyID, nil
}

// --- vault reads ---

type vaultStatusResponse struct {
	TotalAssets      string `json:"totalAssets"`
	TotalPrincipal   string `json:"totalPrincipal"`
	ActiveSource     uint8  `json:"activeSource"`
	CurrentAPYBps    uint64 `json:"currentApyBps"`
	Paused           bool   `json:"paused"`
	LastReallocation uint64 `json:"lastReallocation"`
}

func (s *Server) handleVaultStatus(w http.ResponseWriter, r *http.Request) {
	totalAssets, err := s.engine.TotalAssets()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	totalPrincipal, err := s.engine.TotalPrincipal()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	active, err := s.engine.ActiveSource()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	apy, err := s.engine.CurrentAPY()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	paused, err := s.engine.Paused()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	marker, err := s.engine.LastReallocation()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	assetsFloat, _ := new(big.Float).SetInt(totalAssets).Float64()
	s.metrics.SetTotalAssets(assetsFloat)
	s.metrics.SetCurrentAPYBps(float64(apy))
	writeJSON(w, http.StatusOK, vaultStatusResponse{
		TotalAssets:      totalAssets.String(),
		TotalPrincipal:   totalPrincipal.String(),
		ActiveSource:     active,
		CurrentAPYBps:    apy,
		Paused:           paused,
		LastReallocation: marker,
	})
}

func (s *Server) handleCurrentAPY(w http.ResponseWriter, r *http.Request) {
	apy, err := s.engine.CurrentAPY()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"apyBps": apy})
}

func (s *Server) handleProtocolAPY(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "sourceID"), 10, 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid source id: %w", err))
		return
	}
	apy, err := s.engine.ProtocolAPY(uint8(id))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"apyBps": apy})
}

func (s *Server) handleYieldEarned(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	yield, err := s.engine.YieldEarned(addr)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"yield": yield.String()})
}

type positionResponse struct {
	Shares    string `json:"shares"`
	Principal string `json:"principal"`
	Value     string `json:"value"`
	Yield     string `json:"yield"`
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	shares, err := s.engine.SharesOf(addr)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	principal, err := s.engine.PrincipalOf(addr)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	value, err := s.engine.ConvertToAssets(shares)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	yield, err := s.engine.YieldEarned(addr)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{
		Shares:    shares.String(),
		Principal: principal.String(),
		Value:     value.String(),
		Yield:     yield.String(),
	})
}

// --- vault mutations ---

type depositRequest struct {
	From     string `json:"from"`
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	from, err := parseAddress(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receiver := from
	if strings.TrimSpace(req.Receiver) != "" {
		receiver, err = parseAddress(req.Receiver)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	minted, err := s.engine.Deposit(from, amount, receiver)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.metrics.RecordDeposit()
	writeJSON(w, http.StatusOK, map[string]string{"sharesMinted": minted.String()})
}

type withdrawRequest struct {
	Owner    string `json:"owner"`
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receiver := owner
	if strings.TrimSpace(req.Receiver) != "" {
		receiver, err = parseAddress(req.Receiver)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	burned, err := s.engine.Withdraw(owner, amount, receiver)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.metrics.RecordWithdrawal()
	writeJSON(w, http.StatusOK, map[string]string{"sharesBurned": burned.String()})
}

type reallocateRequest struct {
	Caller  string `json:"caller"`
	Target  uint8  `json:"target"`
	GainBps uint64 `json:"gainBps"`
	CostBps uint64 `json:"costBps"`
	// Session-key path: agents supply the grant identifier, a nonce and a
	// signature over the reallocation digest instead of owner identity.
	KeyID     string `json:"keyId,omitempty"`
	Nonce     string `json:"nonce,omitempty"`
	Signature string `json:"signature,omitempty"`
}

func (s *Server) handleReallocate(w http.ResponseWriter, r *http.Request) {
	var req reallocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if strings.TrimSpace(req.KeyID) != "" {
		if err := s.authorizeSessionReallocate(req); err != nil {
			s.metrics.RecordSessionFailure(sessionFailureReason(err))
			writeError(w, statusFor(err), err)
			return
		}
		s.metrics.RecordSessionUse()
	} else {
		caller, err := parseAddress(req.Caller)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !caller.Equal(s.owner) {
			writeError(w, http.StatusForbidden, errors.New("caller is not the vault owner"))
			return
		}
	}

	// The reallocation marker is advisory and monotonic; wall-clock seconds
	// serve as the height outside a block context.
	s.engine.SetBlockHeight(uint64(time.Now().Unix()))
	moved, err := s.engine.Reallocate(s.owner, req.Target, req.GainBps, req.CostBps)
	if err != nil {
		if reason := rejectionReason(err); reason != "" {
			s.metrics.RecordGateRejection(reason)
		}
		writeError(w, statusFor(err), err)
		return
	}
	s.metrics.RecordReallocation(strconv.FormatUint(uint64(req.Target), 10))
	writeJSON(w, http.StatusOK, map[string]string{"moved": moved.String()})
}

func (s *Server) authorizeSessionReallocate(req reallocateRequest) error {
	keyID, err := parseKeyID(req.KeyID)
	if err != nil {
		return err
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(req.Signature), "0x"))
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	digest := ReallocationDigest(s.engine.VaultID(), req.Target, req.GainBps, req.CostBps, req.Nonce)
	return s.registry.Validate(keyID, s.target, ReallocateSelector, big.NewInt(0), signature, digest)
}

// --- session grants ---

type grantRequest struct {
	Granter         string `json:"granter"`
	SessionKey      string `json:"sessionKey"`
	Target          string `json:"target"`
	Selector        string `json:"selector,omitempty"`
	ValueLimit      string `json:"valueLimit,omitempty"`
	MaxTransactions uint64 `json:"maxTransactions,omitempty"`
	ValidAfter      uint64 `json:"validAfter,omitempty"`
	ValidUntil      uint64 `json:"validUntil,omitempty"`
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	granter, err := parseAddress(req.Granter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sessionKey, err := parseAddress(req.SessionKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	target := s.target
	if strings.TrimSpace(req.Target) != "" {
		target, err = parseAddress(req.Target)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	selector := ReallocateSelector
	if trimmed := strings.TrimPrefix(strings.TrimSpace(req.Selector), "0x"); trimmed != "" {
		decoded, err := hex.DecodeString(trimmed)
		if err != nil || len(decoded) != 4 {
			writeError(w, http.StatusBadRequest, errors.New("selector must be 4 hex bytes"))
			return
		}
		copy(selector[:], decoded)
	}
	valueLimit := big.NewInt(0)
	if strings.TrimSpace(req.ValueLimit) != "" {
		valueLimit, err = parseAmount(req.ValueLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	keyID, err := s.registry.Grant(granter, sessionKey, target, selector, valueLimit, req.MaxTransactions, req.ValidAfter, req.ValidUntil)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"keyId": hex.EncodeToString(keyID[:])})
}

type grantResponse struct {
	Granter          string `json:"granter"`
	SessionKey       string `json:"sessionKey"`
	Target           string `json:"target"`
	Selector         string `json:"selector"`
	ValueLimit       string `json:"valueLimit"`
	MaxTransactions  uint64 `json:"maxTransactions"`
	TransactionCount uint64 `json:"transactionCount"`
	ValidAfter       uint64 `json:"validAfter"`
	ValidUntil       uint64 `json:"validUntil"`
	Active           bool   `json:"active"`
}

func (s *Server) handleGetGrant(w http.ResponseWriter, r *http.Request) {
	keyID, err := parseKeyID(chi.URLParam(r, "keyID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	grant, err := s.registry.Get(keyID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, grantResponse{
		Granter:          grant.Granter.String(),
		SessionKey:       grant.SessionKey.String(),
		Target:           grant.Target.String(),
		Selector:         hex.EncodeToString(grant.FunctionSelector[:]),
		ValueLimit:       grant.ValueLimit.String(),
		MaxTransactions:  grant.MaxTransactions,
		TransactionCount: grant.TransactionCount,
		ValidAfter:       grant.ValidAfter,
		ValidUntil:       grant.ValidUntil,
		Active:           grant.Active,
	})
}

type revokeRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	keyID, err := parseKeyID(chi.URLParam(r, "keyID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.registry.Revoke(caller, keyID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
