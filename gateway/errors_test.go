package gateway

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"yieldvault/native/session"
	"yieldvault/native/vault"
)

func TestStatusForSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{vault.ErrUnauthorized, http.StatusForbidden},
		{session.ErrInvalidSignature, http.StatusForbidden},
		{session.ErrKeyNotFound, http.StatusNotFound},
		{session.ErrDuplicateGrant, http.StatusConflict},
		{vault.ErrPaused, http.StatusConflict},
		// A request rejected by the reentrancy guard lost a race with an
		// in-flight operation; that is a retryable conflict, not a bug.
		{vault.ErrReentrantCall, http.StatusConflict},
		{session.ErrReentrantCall, http.StatusConflict},
		{vault.ErrInsufficientYieldGain, http.StatusUnprocessableEntity},
		{vault.ErrSharesUnbacked, http.StatusUnprocessableEntity},
		{vault.ErrInsufficientShares, http.StatusUnprocessableEntity},
		{vault.ErrInvalidAmount, http.StatusBadRequest},
		{session.ErrInvalidWindow, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, statusFor(tc.err), "status for %v", tc.err)
	}
}
