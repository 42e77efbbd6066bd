package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"yieldvault/native/session"
	"yieldvault/native/vault"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

// statusFor maps engine and registry sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vault.ErrUnauthorized),
		errors.Is(err, session.ErrUnauthorized),
		errors.Is(err, session.ErrKeyNotActive),
		errors.Is(err, session.ErrKeyExpired),
		errors.Is(err, session.ErrKeyNotYetValid),
		errors.Is(err, session.ErrTxLimitExceeded),
		errors.Is(err, session.ErrValueLimitExceeded),
		errors.Is(err, session.ErrUnauthorizedTarget),
		errors.Is(err, session.ErrUnauthorizedFunction),
		errors.Is(err, session.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, session.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrDuplicateGrant),
		errors.Is(err, vault.ErrPaused),
		errors.Is(err, vault.ErrReentrantCall),
		errors.Is(err, session.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, vault.ErrInsufficientYieldGain),
		errors.Is(err, vault.ErrGasCostTooHigh),
		errors.Is(err, vault.ErrNoFundsToRebalance),
		errors.Is(err, vault.ErrSharesUnbacked),
		errors.Is(err, vault.ErrInsufficientBalance),
		errors.Is(err, vault.ErrInsufficientShares):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, vault.ErrInvalidReceiver),
		errors.Is(err, vault.ErrInvalidAdapter),
		errors.Is(err, session.ErrInvalidSessionKey),
		errors.Is(err, session.ErrInvalidTarget),
		errors.Is(err, session.ErrInvalidWindow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// rejectionReason labels gate rejections for metrics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, vault.ErrInsufficientYieldGain):
		return "insufficient_gain"
	case errors.Is(err, vault.ErrGasCostTooHigh):
		return "cost_too_high"
	case errors.Is(err, vault.ErrNoFundsToRebalance):
		return "empty_vault"
	default:
		return ""
	}
}

// sessionFailureReason labels validation failures for metrics.
func sessionFailureReason(err error) string {
	switch {
	case errors.Is(err, session.ErrKeyNotFound):
		return "not_found"
	case errors.Is(err, session.ErrKeyNotActive):
		return "revoked"
	case errors.Is(err, session.ErrKeyExpired):
		return "expired"
	case errors.Is(err, session.ErrKeyNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, session.ErrTxLimitExceeded):
		return "budget_exhausted"
	case errors.Is(err, session.ErrValueLimitExceeded):
		return "value_limit"
	case errors.Is(err, session.ErrUnauthorizedTarget):
		return "wrong_target"
	case errors.Is(err, session.ErrUnauthorizedFunction):
		return "wrong_function"
	case errors.Is(err, session.ErrInvalidSignature):
		return "bad_signature"
	default:
		return "other"
	}
}
